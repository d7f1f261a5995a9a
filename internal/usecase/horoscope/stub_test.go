package horoscope

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"horoscope-hub/internal/domain"
)

// memStore: хранилище в памяти со счётчиками вызовов.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Horoscope

	findPublishedCalls int
	batchCalls         int
	lastBatch          []domain.Sign
	failWrites         error
}

func newMemStore() *memStore {
	return &memStore{rows: map[int64]domain.Horoscope{}}
}

func (s *memStore) byKey(sign domain.Sign, date string) (int64, bool) {
	for id, h := range s.rows {
		if h.Sign == sign && h.Date == date {
			return id, true
		}
	}
	return 0, false
}

func (s *memStore) Upsert(_ context.Context, h domain.Horoscope) (domain.Horoscope, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return domain.Horoscope{}, false, domain.StoreError("upsert", s.failWrites)
	}
	now := time.Now()
	var wasPublished bool
	if id, ok := s.byKey(h.Sign, h.Date); ok {
		h.ID = id
		h.CreatedAt = s.rows[id].CreatedAt
		wasPublished = s.rows[id].Published
	} else {
		s.nextID++
		h.ID = s.nextID
		h.CreatedAt = now
	}
	h.UpdatedAt = now
	s.rows[h.ID] = h
	return h, wasPublished, nil
}

func (s *memStore) InsertIfAbsent(_ context.Context, h domain.Horoscope) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey(h.Sign, h.Date); ok {
		return false, nil
	}
	s.nextID++
	h.ID = s.nextID
	s.rows[h.ID] = h
	return true, nil
}

func (s *memStore) FindByID(_ context.Context, id int64) (domain.Horoscope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.rows[id]
	if !ok {
		return domain.Horoscope{}, &domain.NotFoundError{Message: "Horoscope not found"}
	}
	return h, nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return domain.StoreError("delete", s.failWrites)
	}
	if _, ok := s.rows[id]; !ok {
		return &domain.NotFoundError{Message: "Horoscope not found"}
	}
	delete(s.rows, id)
	return nil
}

func (s *memStore) FindPublished(_ context.Context, sign domain.Sign, date string) (domain.Horoscope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findPublishedCalls++
	if id, ok := s.byKey(sign, date); ok && s.rows[id].Published {
		return s.rows[id], nil
	}
	return domain.Horoscope{}, domain.HoroscopeUnavailable(sign, date)
}

func (s *memStore) FindPublishedBatch(_ context.Context, signs []domain.Sign, date string) ([]domain.Horoscope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchCalls++
	s.lastBatch = append([]domain.Sign(nil), signs...)
	var out []domain.Horoscope
	for _, sign := range signs {
		if id, ok := s.byKey(sign, date); ok && s.rows[id].Published {
			out = append(out, s.rows[id])
		}
	}
	return out, nil
}

func (s *memStore) Query(_ context.Context, q domain.HoroscopeQuery) ([]domain.Horoscope, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Horoscope
	for _, h := range s.rows {
		if q.Date != "" && h.Date != q.Date {
			continue
		}
		if q.Sign != "" && h.Sign != q.Sign {
			continue
		}
		all = append(all, h)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if q.Date != "" {
			if a.Sign != b.Sign {
				return a.Sign < b.Sign
			}
			return a.Date > b.Date
		}
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.Sign < b.Sign
	})
	total := len(all)
	from := min(q.Offset(), total)
	to := min(from+q.Limit, total)
	return all[from:to], total, nil
}

func (s *memStore) SetPublished(_ context.Context, id int64, published bool) (domain.Horoscope, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.rows[id]
	if !ok {
		return domain.Horoscope{}, false, &domain.NotFoundError{Message: "Horoscope not found"}
	}
	wasPublished := h.Published
	h.Published = published
	h.UpdatedAt = time.Now()
	s.rows[id] = h
	return h, wasPublished, nil
}

func (s *memStore) DateSummary(context.Context, string, string) ([]domain.DateCount, error) {
	return nil, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// brokenCache имитирует недоступный кэш.
type brokenCache struct {
	sets int
}

var errDown = errors.New("connection refused")

func (c *brokenCache) Get(context.Context, domain.Sign, string) (domain.Horoscope, error) {
	return domain.Horoscope{}, domain.CacheError("get", errDown)
}

func (c *brokenCache) GetMany(context.Context, []domain.Sign, string) (map[domain.Sign]domain.Horoscope, error) {
	return nil, domain.CacheError("mget", errDown)
}

func (c *brokenCache) Set(context.Context, domain.Horoscope) error {
	c.sets++
	return domain.CacheError("set", errDown)
}

func (c *brokenCache) Invalidate(context.Context, domain.Sign, string) error {
	return domain.CacheError("del", errDown)
}

func (c *brokenCache) InvalidateForDate(context.Context, string) error {
	return domain.CacheError("del", errDown)
}

func (c *brokenCache) InvalidateAll(context.Context) error {
	return domain.CacheError("scan", errDown)
}

// recordQueue запоминает задачи уведомлений.
type recordQueue struct {
	jobs []domain.PublishNotification
}

func (q *recordQueue) Publish(_ context.Context, job domain.PublishNotification) error {
	q.jobs = append(q.jobs, job)
	return nil
}
