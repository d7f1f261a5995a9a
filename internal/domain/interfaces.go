package domain

import (
	"context"
	"time"
)

// HoroscopeStore: авторитетное хранилище записей (sign, date).
// Upsert и SetPublished дополнительно возвращают флаг published до изменения
// (false для новой строки).
type HoroscopeStore interface {
	Upsert(ctx context.Context, h Horoscope) (Horoscope, bool, error)
	InsertIfAbsent(ctx context.Context, h Horoscope) (bool, error)
	FindByID(ctx context.Context, id int64) (Horoscope, error)
	Delete(ctx context.Context, id int64) error
	FindPublished(ctx context.Context, sign Sign, date string) (Horoscope, error)
	FindPublishedBatch(ctx context.Context, signs []Sign, date string) ([]Horoscope, error)
	Query(ctx context.Context, q HoroscopeQuery) ([]Horoscope, int, error)
	SetPublished(ctx context.Context, id int64, published bool) (Horoscope, bool, error)
	DateSummary(ctx context.Context, from, to string) ([]DateCount, error)
}

// HoroscopeCache: look-aside кэш снимков записей.
type HoroscopeCache interface {
	Get(ctx context.Context, sign Sign, date string) (Horoscope, error)
	GetMany(ctx context.Context, signs []Sign, date string) (map[Sign]Horoscope, error)
	Set(ctx context.Context, h Horoscope) error
	Invalidate(ctx context.Context, sign Sign, date string) error
	InvalidateForDate(ctx context.Context, date string) error
	InvalidateAll(ctx context.Context) error
}

// Generator строит запись по (sign, date) без побочных эффектов.
type Generator interface {
	Generate(sign Sign, date string) (Horoscope, error)
}

// KV используется для простых TTL-хранилищ: коды OTP, refresh-сессии, лимиты.
type KV interface {
	// Once записывает ключ, если его нет, и выполняет fn. При ошибке fn ключ снимается.
	Once(ctx context.Context, key string, value []byte, ttl time.Duration, fn func() error) (bool, error)
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Del(ctx context.Context, keys ...string) error
}

// UserRepo управляет пользователями.
type UserRepo interface {
	UpsertVerified(ctx context.Context, phone string, at time.Time) (User, bool, error)
	GetByID(ctx context.Context, id string) (User, error)
	Save(ctx context.Context, u User) (User, error)
	TouchLastActive(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, q UserQuery) ([]User, int, error)
	Counts(ctx context.Context, dayStart, activeSince time.Time) (UserCounts, error)
}

// StatsRepo ведёт счётчики активности.
type StatsRepo interface {
	IncHoroscopeViews(ctx context.Context, userID string, at time.Time) error
	IncProfileUpdates(ctx context.Context, userID string, at time.Time) error
	Get(ctx context.Context, userID string) (UsageStats, error)
	ViewsOn(ctx context.Context, day time.Time) (int64, error)
}

// OTPResult: ответ SMS-шлюза.
type OTPResult struct {
	MessageID string
	Message   string
}

// OTPSender доставляет код подтверждения.
type OTPSender interface {
	SendOTP(ctx context.Context, phone, code string) (OTPResult, error)
}
