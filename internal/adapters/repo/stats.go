package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"horoscope-hub/internal/domain"
	"horoscope-hub/internal/infra/metrics"
)

var _ domain.StatsRepo = (*Postgres)(nil)

// IncHoroscopeViews увеличивает счётчик просмотров (insert-or-increment).
func (p *Postgres) IncHoroscopeViews(ctx context.Context, userID string, at time.Time) error {
	return p.incStat(ctx, "stats_views", `
INSERT INTO user_stats (user_id, horoscope_views, last_active)
VALUES ($1, 1, $2)
ON CONFLICT (user_id) DO UPDATE SET
	horoscope_views = user_stats.horoscope_views + 1,
	last_active = EXCLUDED.last_active,
	updated_at = now()`, userID, at)
}

// IncProfileUpdates увеличивает счётчик правок анкеты.
func (p *Postgres) IncProfileUpdates(ctx context.Context, userID string, at time.Time) error {
	return p.incStat(ctx, "stats_profile_updates", `
INSERT INTO user_stats (user_id, profile_updates, last_active)
VALUES ($1, 1, $2)
ON CONFLICT (user_id) DO UPDATE SET
	profile_updates = user_stats.profile_updates + 1,
	last_active = EXCLUDED.last_active,
	updated_at = now()`, userID, at)
}

func (p *Postgres) incStat(ctx context.Context, op, stmt, userID string, at time.Time) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, stmt, userID, at)
	metrics.ObserveNetworkRequest("postgres", op, "user_stats", start, err)
	if err != nil {
		return domain.StoreError(op, err)
	}
	return nil
}

// Get возвращает счётчики пользователя; нулевые, если записей ещё нет.
func (p *Postgres) Get(ctx context.Context, userID string) (domain.UsageStats, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	stats := domain.UsageStats{UserID: userID}
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT horoscope_views, profile_updates, last_active FROM user_stats WHERE user_id = $1`, userID).
		Scan(&stats.HoroscopeViews, &stats.ProfileUpdates, &stats.LastActive)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "stats_get", "user_stats", start, nil)
		return stats, nil
	}
	metrics.ObserveNetworkRequest("postgres", "stats_get", "user_stats", start, err)
	if err != nil {
		return domain.UsageStats{}, domain.StoreError("stats get", err)
	}
	return stats, nil
}

// ViewsOn суммирует просмотры пользователей, активных в указанный день.
func (p *Postgres) ViewsOn(ctx context.Context, day time.Time) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	var total int64
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(horoscope_views), 0) FROM user_stats
WHERE last_active >= $1 AND last_active < $2`, from, from.AddDate(0, 0, 1)).Scan(&total)
	metrics.ObserveNetworkRequest("postgres", "stats_views_on", "user_stats", start, err)
	if err != nil {
		return 0, domain.StoreError("stats views on", err)
	}
	return total, nil
}
