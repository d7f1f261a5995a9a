package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"horoscope-hub/internal/domain"
	"horoscope-hub/internal/infra/metrics"
)

var _ domain.UserRepo = (*Postgres)(nil)

const userColumns = `id, phone_number, is_verified, is_active, is_admin, profile, birth_chart,
preferences, subscription, last_active, created_at, updated_at`

func scanUser(row pgx.Row, extra ...any) (domain.User, error) {
	var (
		u                           domain.User
		id                          uuid.UUID
		profile, chart, preferences []byte
		tier                        string
	)
	dest := []any{&id, &u.PhoneNumber, &u.IsVerified, &u.IsActive, &u.IsAdmin, &profile, &chart,
		&preferences, &tier, &u.LastActive, &u.CreatedAt, &u.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.User{}, err
	}
	u.ID = id.String()
	u.Subscription = domain.ParseTier(tier)
	if err := json.Unmarshal(profile, &u.Profile); err != nil {
		return domain.User{}, fmt.Errorf("decode profile: %w", err)
	}
	if err := json.Unmarshal(chart, &u.BirthChart); err != nil {
		return domain.User{}, fmt.Errorf("decode birth chart: %w", err)
	}
	if err := json.Unmarshal(preferences, &u.Preferences); err != nil {
		return domain.User{}, fmt.Errorf("decode preferences: %w", err)
	}
	return u, nil
}

// UpsertVerified создаёт пользователя при первой успешной проверке кода или помечает существующего.
func (p *Postgres) UpsertVerified(ctx context.Context, phone string, at time.Time) (domain.User, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	prefs, err := json.Marshal(domain.DefaultPreferences())
	if err != nil {
		return domain.User{}, false, err
	}
	var created bool
	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO users (id, phone_number, is_verified, preferences, last_active)
VALUES ($1, $2, true, $3, $4)
ON CONFLICT (phone_number) DO UPDATE SET is_verified = true, last_active = EXCLUDED.last_active, updated_at = now()
RETURNING `+userColumns+`, (xmax = 0) AS inserted`, uuid.New(), phone, prefs, at)
	u, err := scanUser(row, &created)
	metrics.ObserveNetworkRequest("postgres", "users_upsert", "users", start, err)
	if err != nil {
		return domain.User{}, false, domain.StoreError("users upsert", err)
	}
	return u, created, nil
}

// GetByID возвращает пользователя по идентификатору.
func (p *Postgres) GetByID(ctx context.Context, id string) (domain.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return domain.User{}, &domain.NotFoundError{Message: "User not found"}
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	u, err := scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "users_get", "users", start, nil)
		return domain.User{}, &domain.NotFoundError{Message: "User not found"}
	}
	metrics.ObserveNetworkRequest("postgres", "users_get", "users", start, err)
	if err != nil {
		return domain.User{}, domain.StoreError("users get", err)
	}
	return u, nil
}

// Save сохраняет анкету, производные данные рождения и настройки.
func (p *Postgres) Save(ctx context.Context, u domain.User) (domain.User, error) {
	uid, err := uuid.Parse(u.ID)
	if err != nil {
		return domain.User{}, &domain.NotFoundError{Message: "User not found"}
	}
	profile, err := json.Marshal(u.Profile)
	if err != nil {
		return domain.User{}, err
	}
	chart, err := json.Marshal(u.BirthChart)
	if err != nil {
		return domain.User{}, err
	}
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return domain.User{}, err
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	saved, err := scanUser(p.pool.QueryRow(ctx, `
UPDATE users SET profile = $2, birth_chart = $3, preferences = $4, subscription = $5, updated_at = now()
WHERE id = $1
RETURNING `+userColumns, uid, profile, chart, prefs, string(u.Subscription)))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "users_save", "users", start, nil)
		return domain.User{}, &domain.NotFoundError{Message: "User not found"}
	}
	metrics.ObserveNetworkRequest("postgres", "users_save", "users", start, err)
	if err != nil {
		return domain.User{}, domain.StoreError("users save", err)
	}
	return saved, nil
}

// TouchLastActive обновляет отметку активности.
func (p *Postgres) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err = p.pool.Exec(ctx, `UPDATE users SET last_active = $2 WHERE id = $1`, uid, at)
	metrics.ObserveNetworkRequest("postgres", "users_touch", "users", start, err)
	if err != nil {
		return domain.StoreError("users touch", err)
	}
	return nil
}

// List возвращает страницу пользователей для админки.
func (p *Postgres) List(ctx context.Context, q domain.UserQuery) ([]domain.User, int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	page := domain.HoroscopeQuery{Page: q.Page, Limit: q.Limit}.Normalize()

	var (
		conds []string
		args  []any
	)
	if s := strings.TrimSpace(q.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(phone_number ILIKE $%d OR profile->>'firstName' ILIKE $%d OR profile->>'lastName' ILIKE $%d)", n, n, n))
	}
	if q.Verified != nil {
		args = append(args, *q.Verified)
		conds = append(conds, fmt.Sprintf("is_verified = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	start := time.Now()
	var total int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		metrics.ObserveNetworkRequest("postgres", "users_count", "users", start, err)
		return nil, 0, domain.StoreError("users count", err)
	}
	args = append(args, page.Limit, page.Offset())
	rows, err := p.pool.Query(ctx, `SELECT `+userColumns+` FROM users`+where+
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		metrics.ObserveNetworkRequest("postgres", "users_list", "users", start, err)
		return nil, 0, domain.StoreError("users list", err)
	}
	defer rows.Close()
	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, domain.StoreError("users list", err)
		}
		out = append(out, u)
	}
	err = rows.Err()
	metrics.ObserveNetworkRequest("postgres", "users_list", "users", start, err)
	if err != nil {
		return nil, 0, domain.StoreError("users list", err)
	}
	return out, total, nil
}

// Counts считает агрегаты пользователей для дашборда.
func (p *Postgres) Counts(ctx context.Context, dayStart, activeSince time.Time) (domain.UserCounts, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var c domain.UserCounts
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT
	COUNT(*) FILTER (WHERE is_active),
	COUNT(*) FILTER (WHERE is_active AND is_verified),
	COUNT(*) FILTER (WHERE created_at >= $1 AND created_at < $1 + interval '1 day'),
	COUNT(*) FILTER (WHERE last_active >= $2)
FROM users`, dayStart, activeSince).Scan(&c.Total, &c.Verified, &c.TodayRegistrations, &c.DailyActive)
	metrics.ObserveNetworkRequest("postgres", "users_counts", "users", start, err)
	if err != nil {
		return domain.UserCounts{}, domain.StoreError("users counts", err)
	}
	return c, nil
}
