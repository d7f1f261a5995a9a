package auth

import (
	"context"
	"strconv"
	"sync"
	"time"

	"horoscope-hub/internal/domain"
)

type kvEntry struct {
	val []byte
	exp time.Time
}

// memKV: KV в памяти с управляемыми часами.
type memKV struct {
	mu   sync.Mutex
	data map[string]kvEntry
	now  func() time.Time
}

func newMemKV(now func() time.Time) *memKV {
	return &memKV{data: map[string]kvEntry{}, now: now}
}

func (m *memKV) live(key string) (kvEntry, bool) {
	e, ok := m.data[key]
	if !ok {
		return kvEntry{}, false
	}
	if !e.exp.IsZero() && !m.now().Before(e.exp) {
		delete(m.data, key)
		return kvEntry{}, false
	}
	return e, true
}

func (m *memKV) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

func (m *memKV) Once(ctx context.Context, key string, value []byte, ttl time.Duration, fn func() error) (bool, error) {
	ok, err := m.SetNX(ctx, key, value, ttl)
	if err != nil || !ok {
		return false, err
	}
	if err := fn(); err != nil {
		_ = m.Del(ctx, key)
		return false, err
	}
	return true, nil
}

func (m *memKV) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(key); ok {
		return false, nil
	}
	m.data[key] = kvEntry{val: value, exp: m.expiry(ttl)}
	return true, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = kvEntry{val: value, exp: m.expiry(ttl)}
	return nil
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return e.val, nil
}

func (m *memKV) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	if !ok || e.exp.IsZero() {
		return 0, domain.ErrCacheMiss
	}
	return e.exp.Sub(m.now()), nil
}

func (m *memKV) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(key)
	var n int64
	if ok {
		n, _ = strconv.ParseInt(string(e.val), 10, 64)
	} else {
		e.exp = m.expiry(ttl)
	}
	n++
	e.val = []byte(strconv.FormatInt(n, 10))
	m.data[key] = e
	return n, nil
}

func (m *memKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// memUsers: репозиторий пользователей в памяти.
type memUsers struct {
	mu      sync.Mutex
	byPhone map[string]domain.User
	seq     int
}

func newMemUsers() *memUsers {
	return &memUsers{byPhone: map[string]domain.User{}}
}

func (r *memUsers) UpsertVerified(_ context.Context, phone string, at time.Time) (domain.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byPhone[phone]
	if !ok {
		r.seq++
		u = domain.User{
			ID:          "user-" + strconv.Itoa(r.seq),
			PhoneNumber: phone,
			IsActive:    true,
			Preferences: domain.DefaultPreferences(),
			CreatedAt:   at,
		}
	}
	u.IsVerified = true
	u.LastActive = &at
	r.byPhone[phone] = u
	return u, !ok, nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byPhone {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, &domain.NotFoundError{Message: "User not found"}
}

func (r *memUsers) Save(_ context.Context, u domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPhone[u.PhoneNumber] = u
	return u, nil
}

func (r *memUsers) TouchLastActive(context.Context, string, time.Time) error { return nil }

func (r *memUsers) List(context.Context, domain.UserQuery) ([]domain.User, int, error) {
	return nil, 0, nil
}

func (r *memUsers) Counts(context.Context, time.Time, time.Time) (domain.UserCounts, error) {
	return domain.UserCounts{}, nil
}

// countingSender считает отправленные коды.
type countingSender struct {
	sent []string
	err  error
}

func (s *countingSender) SendOTP(_ context.Context, phone, code string) (domain.OTPResult, error) {
	if s.err != nil {
		return domain.OTPResult{}, s.err
	}
	s.sent = append(s.sent, phone+":"+code)
	return domain.OTPResult{MessageID: "m"}, nil
}
