package horoscope

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horoscope-hub/internal/domain"
	"horoscope-hub/internal/infra/metrics"
)

// AllResult: результат запроса по всем знакам на дату.
type AllResult struct {
	Horoscopes     map[domain.Sign]domain.Horoscope `json:"horoscopes"`
	Date           string                           `json:"date"`
	AvailableSigns []domain.Sign                    `json:"availableSigns"`
	MissingSigns   []domain.Sign                    `json:"missingSigns"`
}

// Resolver отдаёт опубликованный контент через look-aside кэш.
type Resolver struct {
	store domain.HoroscopeStore
	cache domain.HoroscopeCache
	loc   *time.Location
	log   zerolog.Logger
	now   func() time.Time
}

// NewResolver создаёт резолвер. loc задаёт часовой пояс «сегодня» по умолчанию.
func NewResolver(store domain.HoroscopeStore, cache domain.HoroscopeCache, loc *time.Location, log zerolog.Logger) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{store: store, cache: cache, loc: loc, log: log, now: time.Now}
}

// Today возвращает текущую дату в часовом поясе контента.
func (r *Resolver) Today() string {
	return domain.DateIn(r.now(), r.loc)
}

func (r *Resolver) date(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return r.Today(), nil
	}
	if _, err := domain.ParseDate(raw); err != nil {
		return "", err
	}
	return raw, nil
}

// IsAll сообщает, запрошены ли все знаки.
func IsAll(rawSign string) bool {
	return strings.EqualFold(strings.TrimSpace(rawSign), domain.SignAll)
}

// ResolvePublic возвращает опубликованный гороскоп знака на дату; пустая дата означает сегодня.
func (r *Resolver) ResolvePublic(ctx context.Context, rawSign, rawDate string) (domain.Horoscope, error) {
	sign, err := domain.ParseSign(rawSign)
	if err != nil {
		metrics.ObserveResolve("public", err)
		return domain.Horoscope{}, err
	}
	date, err := r.date(rawDate)
	if err != nil {
		metrics.ObserveResolve("public", err)
		return domain.Horoscope{}, err
	}
	h, err := r.Resolve(ctx, sign, date)
	metrics.ObserveResolve("public", err)
	return h, err
}

// Resolve читает запись из кэша, при промахе из хранилища с заполнением кэша.
func (r *Resolver) Resolve(ctx context.Context, sign domain.Sign, date string) (domain.Horoscope, error) {
	if !sign.Valid() {
		return domain.Horoscope{}, domain.ErrInvalidSign
	}
	h, err := r.cache.Get(ctx, sign, date)
	switch {
	case err == nil:
		metrics.ObserveCache("hit")
		return h, nil
	case errors.Is(err, domain.ErrCacheMiss):
		metrics.ObserveCache("miss")
	default:
		metrics.ObserveCache("error")
		r.log.Warn().Err(err).Str("sign", string(sign)).Str("date", date).Msg("cache get failed, falling back to store")
	}

	h, err = r.store.FindPublished(ctx, sign, date)
	if err != nil {
		return domain.Horoscope{}, err
	}
	if err := r.cache.Set(ctx, h); err != nil {
		r.log.Warn().Err(err).Str("sign", string(sign)).Str("date", date).Msg("cache fill failed")
	}
	return h, nil
}

// ResolveAll собирает опубликованные записи всех знаков на дату. Отсутствие части знаков ошибкой не считается.
func (r *Resolver) ResolveAll(ctx context.Context, rawDate string) (AllResult, error) {
	date, err := r.date(rawDate)
	if err != nil {
		metrics.ObserveResolve("all", err)
		return AllResult{}, err
	}

	found, err := r.cache.GetMany(ctx, domain.Signs, date)
	if err != nil {
		metrics.ObserveCache("error")
		r.log.Warn().Err(err).Str("date", date).Msg("cache batch get failed, falling back to store")
		found = make(map[domain.Sign]domain.Horoscope, len(domain.Signs))
	}

	var misses []domain.Sign
	for _, s := range domain.Signs {
		if _, ok := found[s]; ok {
			metrics.ObserveCache("hit")
			continue
		}
		metrics.ObserveCache("miss")
		misses = append(misses, s)
	}

	if len(misses) > 0 {
		rows, err := r.store.FindPublishedBatch(ctx, misses, date)
		if err != nil {
			metrics.ObserveResolve("all", err)
			return AllResult{}, fmt.Errorf("batch fetch: %w", err)
		}
		for _, h := range rows {
			found[h.Sign] = h
			if err := r.cache.Set(ctx, h); err != nil {
				r.log.Warn().Err(err).Str("sign", string(h.Sign)).Str("date", date).Msg("cache fill failed")
			}
		}
	}

	res := AllResult{
		Horoscopes:     found,
		Date:           date,
		AvailableSigns: []domain.Sign{},
		MissingSigns:   []domain.Sign{},
	}
	for _, s := range domain.Signs {
		if _, ok := found[s]; ok {
			res.AvailableSigns = append(res.AvailableSigns, s)
		} else {
			res.MissingSigns = append(res.MissingSigns, s)
		}
	}
	metrics.ObserveResolve("all", nil)
	return res, nil
}

// ResolveAdmin возвращает страницу записей, включая черновики. Кэш не используется.
func (r *Resolver) ResolveAdmin(ctx context.Context, q domain.HoroscopeQuery) (domain.HoroscopePage, error) {
	q = q.Normalize()
	if q.Date != "" {
		if _, err := domain.ParseDate(q.Date); err != nil {
			metrics.ObserveResolve("admin", err)
			return domain.HoroscopePage{}, err
		}
	}
	if q.Sign != "" && !q.Sign.Valid() {
		metrics.ObserveResolve("admin", domain.ErrInvalidSign)
		return domain.HoroscopePage{}, domain.ErrInvalidSign
	}
	items, total, err := r.store.Query(ctx, q)
	metrics.ObserveResolve("admin", err)
	if err != nil {
		return domain.HoroscopePage{}, err
	}
	if items == nil {
		items = []domain.Horoscope{}
	}
	return domain.HoroscopePage{Items: items, Pagination: domain.NewPagination(q.Page, q.Limit, total)}, nil
}
