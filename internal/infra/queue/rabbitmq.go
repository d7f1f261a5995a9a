package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"horoscope-hub/internal/domain"
	"horoscope-hub/internal/infra/metrics"
)

// RabbitNotificationQueue публикует задачи в durable-очередь RabbitMQ.
type RabbitNotificationQueue struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

var _ domain.NotificationQueue = (*RabbitNotificationQueue)(nil)

// NewRabbitNotificationQueue подключается к брокеру и объявляет очередь.
func NewRabbitNotificationQueue(amqpURL, queue string) (*RabbitNotificationQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	q := &RabbitNotificationQueue{url: amqpURL, queue: queue}
	if err := q.connect(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *RabbitNotificationQueue) connect() error {
	conn, err := amqp.Dial(q.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(q.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare queue: %w", err)
	}
	q.conn, q.ch = conn, ch
	return nil
}

// Publish публикует задачу; при закрытом соединении переподключается один раз.
func (q *RabbitNotificationQueue) Publish(ctx context.Context, job domain.PublishNotification) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.conn == nil || q.conn.IsClosed() {
		if err := q.connect(); err != nil {
			return err
		}
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close закрывает канал и соединение.
func (q *RabbitNotificationQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
