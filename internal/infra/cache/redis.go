package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"horoscope-hub/internal/domain"
	"horoscope-hub/internal/infra/metrics"
)

// RedisCache реализует domain.KV через Redis.
type RedisCache struct {
	client *redis.Client
}

var _ domain.KV = (*RedisCache)(nil)

// NewRedis создаёт кэш.
func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Once выполняет функцию, если ключ ещё не задан. При ошибке функции ключ снимается.
func (c *RedisCache) Once(ctx context.Context, key string, value []byte, ttl time.Duration, fn func() error) (bool, error) {
	ok, err := c.SetNX(ctx, key, value, ttl)
	if err != nil || !ok {
		return false, err
	}
	if err := fn(); err != nil {
		_ = c.client.Del(ctx, key).Err()
		return false, err
	}
	return true, nil
}

// SetNX задаёт значение, только если ключа нет.
func (c *RedisCache) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	start := time.Now()
	ok, err := c.client.SetNX(ctx, key, value, ttl).Result()
	metrics.ObserveNetworkRequest("redis", "setnx", keyspace(key), start, err)
	return ok, err
}

// Set задаёт значение.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.client.Set(ctx, key, value, ttl).Err()
	metrics.ObserveNetworkRequest("redis", "set", keyspace(key), start, err)
	return err
}

// Get возвращает значение или domain.ErrCacheMiss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveNetworkRequest("redis", "get", keyspace(key), start, nil)
		return nil, domain.ErrCacheMiss
	}
	metrics.ObserveNetworkRequest("redis", "get", keyspace(key), start, err)
	return val, err
}

// TTL возвращает оставшееся время жизни ключа.
func (c *RedisCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, domain.ErrCacheMiss
	}
	return ttl, nil
}

// Incr увеличивает счётчик и выставляет TTL при первом увеличении.
func (c *RedisCache) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	start := time.Now()
	n, err := c.client.Incr(ctx, key).Result()
	if err == nil && n == 1 {
		err = c.client.Expire(ctx, key, ttl).Err()
	}
	metrics.ObserveNetworkRequest("redis", "incr", keyspace(key), start, err)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Del удаляет ключи.
func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	start := time.Now()
	err := c.client.Del(ctx, keys...).Err()
	metrics.ObserveNetworkRequest("redis", "del", keyspace(keys[0]), start, err)
	return err
}

func keyspace(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
