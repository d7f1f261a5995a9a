package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"horoscope-hub/internal/domain"
	"horoscope-hub/internal/infra/metrics"
)

// RedisNotificationQueue реализует очередь уведомлений на базе Redis lists.
type RedisNotificationQueue struct {
	client *redis.Client
	key    string
}

var _ domain.NotificationQueue = (*RedisNotificationQueue)(nil)

// NewRedisNotificationQueue создаёт очередь по указанному ключу.
func NewRedisNotificationQueue(client *redis.Client, key string) *RedisNotificationQueue {
	return &RedisNotificationQueue{client: client, key: key}
}

// Publish публикует задачу в очередь.
func (q *RedisNotificationQueue) Publish(ctx context.Context, job domain.PublishNotification) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.client.LPush(ctx, q.key, payload).Err()
	metrics.ObserveNetworkRequest("redis", "lpush", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}
