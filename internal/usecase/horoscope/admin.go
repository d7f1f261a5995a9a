package horoscope

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/rs/zerolog"

	"horoscope-hub/internal/domain"
	"horoscope-hub/internal/infra/metrics"
	"horoscope-hub/internal/infra/validation"
)

// UpsertInput: данные админской записи гороскопа.
type UpsertInput struct {
	Date             string              `json:"date" validate:"required"`
	Sign             string              `json:"sunSign" validate:"required"`
	Timezone         string              `json:"timezone" validate:"maxLen:50"`
	Locale           string              `json:"locale" validate:"maxLen:10"`
	Summary          string              `json:"summary"`
	Theme            string              `json:"theme" validate:"maxLen:50"`
	NotificationText string              `json:"notificationText" validate:"maxLen:80"`
	Sections         domain.Sections     `json:"sections"`
	DosAndDonts      domain.DosAndDonts  `json:"dosAndDonts"`
	Lucky            domain.Lucky        `json:"lucky"`
	MoodRatings      domain.MoodRatings  `json:"moodRatings"`
	Affirmation      string              `json:"affirmation"`
	ChartSnippet     domain.ChartSnippet `json:"chartSnippet"`
	Comparison       domain.Comparison   `json:"comparison"`
	Explanation      string              `json:"explanation"`
	TransitFlags     []string            `json:"transitFlags"`
	Published        bool                `json:"published"`
}

// ClearScope описывает, что было сброшено в кэше.
type ClearScope struct {
	Scope   string `json:"scope"`
	Message string `json:"message"`
}

const (
	ScopeKey  = "key"
	ScopeDate = "date"
	ScopeAll  = "all"
)

// Admin управляет контентом: запись в хранилище и согласование кэша в одной операции.
type Admin struct {
	store domain.HoroscopeStore
	cache domain.HoroscopeCache
	queue domain.NotificationQueue
	log   zerolog.Logger
	now   func() time.Time
}

// NewAdmin создаёт контроллер админских операций.
func NewAdmin(store domain.HoroscopeStore, cache domain.HoroscopeCache, queue domain.NotificationQueue, log zerolog.Logger) *Admin {
	if queue == nil {
		queue = domain.NoopQueue{}
	}
	return &Admin{store: store, cache: cache, queue: queue, log: log, now: time.Now}
}

func (in UpsertInput) validate() (domain.Sign, error) {
	if err := validation.Check(validate.Struct(&in)); err != nil {
		return "", err
	}
	if in.Sections == nil {
		return "", domain.NewValidationError("sections", "Date, sun sign, and sections are required")
	}
	sign, err := domain.ParseSign(in.Sign)
	if err != nil {
		return "", err
	}
	if _, err := domain.ParseDate(in.Date); err != nil {
		return "", err
	}
	if missing := in.Sections.Missing(); len(missing) > 0 {
		keys := make([]string, len(missing))
		for i, k := range missing {
			keys[i] = string(k)
		}
		return "", domain.NewValidationError("sections", "sections must include: "+strings.Join(keys, ", "))
	}
	if m := in.MoodRatings; outOfRange(m.Energy) || outOfRange(m.Love) || outOfRange(m.Work) || outOfRange(m.Luck) {
		return "", domain.NewValidationError("moodRatings", "mood ratings must be between 0 and 5")
	}
	return sign, nil
}

func outOfRange(v int) bool { return v < 0 || v > 5 }

// Upsert создаёт или заменяет запись (sign, date). Опубликованная запись сразу попадает в кэш, черновик из него удаляется.
// Уведомление уходит только при переходе из черновика в опубликованные.
func (a *Admin) Upsert(ctx context.Context, actorID string, in UpsertInput) (domain.Horoscope, error) {
	sign, err := in.validate()
	if err != nil {
		metrics.ObserveAdminWrite("upsert", err)
		return domain.Horoscope{}, err
	}

	h := domain.Horoscope{
		Date:             in.Date,
		Timezone:         in.Timezone,
		Locale:           in.Locale,
		Sign:             sign,
		Summary:          in.Summary,
		Theme:            in.Theme,
		NotificationText: in.NotificationText,
		Sections:         in.Sections,
		DosAndDonts:      in.DosAndDonts,
		Lucky:            in.Lucky,
		MoodRatings:      in.MoodRatings,
		Affirmation:      in.Affirmation,
		ChartSnippet:     in.ChartSnippet,
		Comparison:       in.Comparison,
		Explanation:      in.Explanation,
		Published:        in.Published,
		GenerationMetadata: domain.GenerationMetadata{
			Engine:          domain.EngineAdminManual,
			TransitFlags:    in.TransitFlags,
			TemplateVersion: domain.TemplateVersion,
			ConfidenceScore: 1.0,
			GeneratedAt:     a.now().UTC(),
			CreatedBy:       actorID,
		},
	}
	if h.Timezone == "" {
		h.Timezone = domain.DefaultTimezone
	}
	if h.Locale == "" {
		h.Locale = domain.DefaultLocale
	}

	saved, wasPublished, err := a.store.Upsert(ctx, h)
	metrics.ObserveAdminWrite("upsert", err)
	if err != nil {
		return domain.Horoscope{}, fmt.Errorf("upsert horoscope: %w", err)
	}
	if saved.Published {
		a.cacheSet(ctx, saved)
		if !wasPublished {
			a.notify(ctx, saved)
		}
	} else {
		a.cacheInvalidate(ctx, saved.Sign, saved.Date)
	}
	a.log.Info().Int64("id", saved.ID).Str("sign", string(saved.Sign)).Str("date", saved.Date).
		Bool("published", saved.Published).Str("actor", actorID).Msg("horoscope upserted")
	return saved, nil
}

// Delete удаляет запись и её ключ в кэше.
func (a *Admin) Delete(ctx context.Context, id int64) error {
	h, err := a.store.FindByID(ctx, id)
	if err != nil {
		metrics.ObserveAdminWrite("delete", err)
		return err
	}
	err = a.store.Delete(ctx, id)
	metrics.ObserveAdminWrite("delete", err)
	if err != nil {
		return err
	}
	a.cacheInvalidate(ctx, h.Sign, h.Date)
	a.log.Info().Int64("id", id).Str("sign", string(h.Sign)).Str("date", h.Date).Msg("horoscope deleted")
	return nil
}

// SetPublished переключает публикацию: публикация обновляет кэш, снятие удаляет ключ.
func (a *Admin) SetPublished(ctx context.Context, id int64, published bool) (domain.Horoscope, error) {
	h, wasPublished, err := a.store.SetPublished(ctx, id, published)
	metrics.ObserveAdminWrite("publish", err)
	if err != nil {
		return domain.Horoscope{}, err
	}
	if h.Published {
		a.cacheSet(ctx, h)
		if !wasPublished {
			a.notify(ctx, h)
		}
	} else {
		a.cacheInvalidate(ctx, h.Sign, h.Date)
	}
	return h, nil
}

// ClearCache сбрасывает кэш: один ключ, все знаки даты или всё целиком. Хранилище не меняется.
func (a *Admin) ClearCache(ctx context.Context, rawDate, rawSign string) (ClearScope, error) {
	date := strings.TrimSpace(rawDate)
	if date != "" {
		if _, err := domain.ParseDate(date); err != nil {
			return ClearScope{}, err
		}
	}

	var (
		scope ClearScope
		err   error
	)
	switch {
	case date != "" && strings.TrimSpace(rawSign) != "":
		sign, perr := domain.ParseSign(rawSign)
		if perr != nil {
			return ClearScope{}, perr
		}
		err = a.cache.Invalidate(ctx, sign, date)
		scope = ClearScope{Scope: ScopeKey, Message: fmt.Sprintf("Cache cleared for %s on %s", sign, date)}
	case date != "":
		err = a.cache.InvalidateForDate(ctx, date)
		scope = ClearScope{Scope: ScopeDate, Message: fmt.Sprintf("Cache cleared for all signs on %s", date)}
	default:
		err = a.cache.InvalidateAll(ctx)
		scope = ClearScope{Scope: ScopeAll, Message: "All cache cleared"}
	}
	metrics.ObserveAdminWrite("clear_cache", err)
	if err != nil {
		return ClearScope{}, err
	}
	return scope, nil
}

func (a *Admin) cacheSet(ctx context.Context, h domain.Horoscope) {
	if err := a.cache.Set(ctx, h); err != nil {
		a.log.Warn().Err(err).Str("sign", string(h.Sign)).Str("date", h.Date).Msg("cache set after write failed")
	}
}

func (a *Admin) cacheInvalidate(ctx context.Context, sign domain.Sign, date string) {
	if err := a.cache.Invalidate(ctx, sign, date); err != nil {
		a.log.Warn().Err(err).Str("sign", string(sign)).Str("date", date).Msg("cache invalidate after write failed")
	}
}

func (a *Admin) notify(ctx context.Context, h domain.Horoscope) {
	if err := a.queue.Publish(ctx, domain.NewPublishNotification(h, a.now())); err != nil {
		a.log.Warn().Err(err).Int64("id", h.ID).Msg("publish notification failed")
	}
}
