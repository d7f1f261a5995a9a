package cache

import (
	"context"
	"errors"
	"time"

	"github.com/coocood/freecache"

	"horoscope-hub/internal/domain"
)

// freecache не пишет записи крупнее 1/1024 размера кэша, снимок весит несколько килобайт.
const minMemoryBytes = 16 * 1024 * 1024

// Memory: слой кэша гороскопов в памяти процесса на freecache.
// Подходит для одного инстанса: инвалидация не видна другим процессам.
type Memory struct {
	cache *freecache.Cache
	ttl   int
}

var _ domain.HoroscopeCache = (*Memory)(nil)

// NewMemory создаёт кэш размером sizeMB мегабайт.
func NewMemory(sizeMB int, ttl time.Duration) *Memory {
	size := sizeMB * 1024 * 1024
	if size < minMemoryBytes {
		size = minMemoryBytes
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{cache: freecache.NewCache(size), ttl: max(int(ttl.Seconds()), 1)}
}

func (m *Memory) Get(_ context.Context, sign domain.Sign, date string) (domain.Horoscope, error) {
	data, err := m.cache.Get([]byte(Key(sign, date)))
	if errors.Is(err, freecache.ErrNotFound) {
		return domain.Horoscope{}, domain.ErrCacheMiss
	}
	if err != nil {
		return domain.Horoscope{}, domain.CacheError("get", err)
	}
	h, err := decode(data)
	if err != nil {
		m.cache.Del([]byte(Key(sign, date)))
		return domain.Horoscope{}, domain.ErrCacheMiss
	}
	return h, nil
}

func (m *Memory) GetMany(ctx context.Context, signs []domain.Sign, date string) (map[domain.Sign]domain.Horoscope, error) {
	out := make(map[domain.Sign]domain.Horoscope, len(signs))
	for _, s := range signs {
		h, err := m.Get(ctx, s, date)
		if err != nil {
			continue
		}
		out[s] = h
	}
	return out, nil
}

func (m *Memory) Set(_ context.Context, h domain.Horoscope) error {
	data, err := encode(h)
	if err != nil {
		return domain.CacheError("encode", err)
	}
	if err := m.cache.Set([]byte(Key(h.Sign, h.Date)), data, m.ttl); err != nil {
		return domain.CacheError("set", err)
	}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, sign domain.Sign, date string) error {
	m.cache.Del([]byte(Key(sign, date)))
	return nil
}

func (m *Memory) InvalidateForDate(_ context.Context, date string) error {
	for _, key := range DateKeys(date) {
		m.cache.Del([]byte(key))
	}
	return nil
}

// InvalidateAll очищает весь кэш: экземпляр хранит только снимки гороскопов.
func (m *Memory) InvalidateAll(_ context.Context) error {
	m.cache.Clear()
	return nil
}

// Len возвращает число живых записей.
func (m *Memory) Len() int64 {
	return m.cache.EntryCount()
}
