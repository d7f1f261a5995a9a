package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"horoscope-hub/internal/domain"
	"horoscope-hub/internal/infra/metrics"
)

const scanBatch = 500

// HoroscopeRedis: слой кэша гороскопов поверх Redis.
type HoroscopeRedis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ domain.HoroscopeCache = (*HoroscopeRedis)(nil)

// NewHoroscopeRedis создаёт кэш снимков.
func NewHoroscopeRedis(client *redis.Client, ttl time.Duration) *HoroscopeRedis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &HoroscopeRedis{client: client, ttl: ttl}
}

// Get возвращает снимок или domain.ErrCacheMiss.
func (c *HoroscopeRedis) Get(ctx context.Context, sign domain.Sign, date string) (domain.Horoscope, error) {
	start := time.Now()
	data, err := c.client.Get(ctx, Key(sign, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveNetworkRequest("redis", "get", "horoscope", start, nil)
		return domain.Horoscope{}, domain.ErrCacheMiss
	}
	metrics.ObserveNetworkRequest("redis", "get", "horoscope", start, err)
	if err != nil {
		return domain.Horoscope{}, domain.CacheError("get", err)
	}
	h, err := decode(data)
	if err != nil {
		// битый снимок считаем промахом, store его перезапишет
		_ = c.client.Del(ctx, Key(sign, date)).Err()
		return domain.Horoscope{}, domain.ErrCacheMiss
	}
	return h, nil
}

// GetMany читает снимки одной командой MGET. Отсутствующие знаки в карту не попадают.
func (c *HoroscopeRedis) GetMany(ctx context.Context, signs []domain.Sign, date string) (map[domain.Sign]domain.Horoscope, error) {
	out := make(map[domain.Sign]domain.Horoscope, len(signs))
	if len(signs) == 0 {
		return out, nil
	}
	keys := make([]string, len(signs))
	for i, s := range signs {
		keys[i] = Key(s, date)
	}
	start := time.Now()
	vals, err := c.client.MGet(ctx, keys...).Result()
	metrics.ObserveNetworkRequest("redis", "mget", "horoscope", start, err)
	if err != nil {
		return nil, domain.CacheError("mget", err)
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		h, err := decode([]byte(raw))
		if err != nil {
			continue
		}
		out[signs[i]] = h
	}
	return out, nil
}

// Set перезаписывает снимок с TTL.
func (c *HoroscopeRedis) Set(ctx context.Context, h domain.Horoscope) error {
	data, err := encode(h)
	if err != nil {
		return domain.CacheError("encode", err)
	}
	start := time.Now()
	err = c.client.Set(ctx, Key(h.Sign, h.Date), data, c.ttl).Err()
	metrics.ObserveNetworkRequest("redis", "set", "horoscope", start, err)
	if err != nil {
		return domain.CacheError("set", err)
	}
	return nil
}

// Invalidate удаляет снимок одной пары.
func (c *HoroscopeRedis) Invalidate(ctx context.Context, sign domain.Sign, date string) error {
	return c.del(ctx, Key(sign, date))
}

// InvalidateForDate удаляет снимки всех знаков за дату.
func (c *HoroscopeRedis) InvalidateForDate(ctx context.Context, date string) error {
	return c.del(ctx, DateKeys(date)...)
}

// InvalidateAll удаляет все снимки гороскопов, не трогая остальные ключи.
func (c *HoroscopeRedis) InvalidateAll(ctx context.Context) error {
	start := time.Now()
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, KeyPrefix+"*", scanBatch).Result()
		if err != nil {
			metrics.ObserveNetworkRequest("redis", "scan", "horoscope", start, err)
			return domain.CacheError("scan", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				metrics.ObserveNetworkRequest("redis", "scan", "horoscope", start, err)
				return domain.CacheError("del", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	metrics.ObserveNetworkRequest("redis", "scan", "horoscope", start, nil)
	return nil
}

func (c *HoroscopeRedis) del(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.client.Del(ctx, keys...).Err()
	metrics.ObserveNetworkRequest("redis", "del", "horoscope", start, err)
	if err != nil {
		return domain.CacheError("del", err)
	}
	return nil
}
