package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// NotificationLimit: максимальная длина текста уведомления в рунах.
const NotificationLimit = 80

// PublishNotification: задача на рассылку уведомления об опубликованном гороскопе.
type PublishNotification struct {
	HoroscopeID int64     `json:"horoscope_id"`
	Sign        Sign      `json:"sun_sign"`
	Date        string    `json:"date"`
	Text        string    `json:"notification_text"`
	PublishedAt time.Time `json:"published_at"`
}

// NotificationQueue принимает задачи на рассылку.
type NotificationQueue interface {
	Publish(ctx context.Context, job PublishNotification) error
}

// NoopQueue отбрасывает задачи, когда очередь не настроена.
type NoopQueue struct{}

// Publish ничего не делает.
func (NoopQueue) Publish(context.Context, PublishNotification) error { return nil }

// NewPublishNotification собирает задачу для записи. Пустой notificationText заменяется
// началом summary, а без него шаблонной фразой.
func NewPublishNotification(h Horoscope, at time.Time) PublishNotification {
	return PublishNotification{
		HoroscopeID: h.ID,
		Sign:        h.Sign,
		Date:        h.Date,
		Text:        noticeText(h),
		PublishedAt: at.UTC(),
	}
}

func noticeText(h Horoscope) string {
	if text := strings.TrimSpace(h.NotificationText); text != "" {
		return truncate(text, NotificationLimit)
	}
	words := strings.Fields(h.Summary)
	if len(words) == 0 {
		return fmt.Sprintf("Your %s horoscope for %s is ready.", h.Sign, h.Date)
	}
	return truncate(strings.Join(words[:min(len(words), 12)], " "), NotificationLimit)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
