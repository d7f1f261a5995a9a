package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"horoscope-hub/internal/domain"
	"horoscope-hub/internal/infra/metrics"
)

var _ domain.HoroscopeStore = (*Postgres)(nil)

const horoscopeColumns = `id, date, timezone, locale, sun_sign, summary, theme, notification_text,
sections, dos_and_donts, lucky, mood_ratings, affirmation, chart_snippet, comparison,
explanation, generation_metadata, published, created_at, updated_at`

// jsonColumns: JSONB-поля записи, кодируются один раз на границе хранилища.
type jsonColumns struct {
	sections, dosAndDonts, lucky, mood, chart, comparison, meta []byte
}

func encodeColumns(h domain.Horoscope) (jsonColumns, error) {
	var (
		c   jsonColumns
		err error
	)
	parts := []struct {
		dst *[]byte
		src any
	}{
		{&c.sections, h.Sections},
		{&c.dosAndDonts, h.DosAndDonts},
		{&c.lucky, h.Lucky},
		{&c.mood, h.MoodRatings},
		{&c.chart, h.ChartSnippet},
		{&c.comparison, h.Comparison},
		{&c.meta, h.GenerationMetadata},
	}
	for _, part := range parts {
		if *part.dst, err = json.Marshal(part.src); err != nil {
			return jsonColumns{}, fmt.Errorf("encode jsonb: %w", err)
		}
	}
	return c, nil
}

func scanHoroscope(row pgx.Row, extra ...any) (domain.Horoscope, error) {
	var (
		h                          domain.Horoscope
		sign                       string
		summary, theme, notif      *string
		affirmation, explanation   *string
		sections, dos, lucky, mood []byte
		chart, comparison, meta    []byte
	)
	dest := []any{&h.ID, &h.Date, &h.Timezone, &h.Locale, &sign, &summary, &theme, &notif,
		&sections, &dos, &lucky, &mood, &affirmation, &chart, &comparison,
		&explanation, &meta, &h.Published, &h.CreatedAt, &h.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return domain.Horoscope{}, err
	}
	h.Sign = domain.Sign(sign)
	h.Summary = deref(summary)
	h.Theme = deref(theme)
	h.NotificationText = deref(notif)
	h.Affirmation = deref(affirmation)
	h.Explanation = deref(explanation)

	parts := []struct {
		src []byte
		dst any
	}{
		{sections, &h.Sections},
		{dos, &h.DosAndDonts},
		{lucky, &h.Lucky},
		{mood, &h.MoodRatings},
		{chart, &h.ChartSnippet},
		{comparison, &h.Comparison},
		{meta, &h.GenerationMetadata},
	}
	for _, part := range parts {
		if len(part.src) == 0 {
			continue
		}
		if err := json.Unmarshal(part.src, part.dst); err != nil {
			return domain.Horoscope{}, fmt.Errorf("decode jsonb: %w", err)
		}
	}
	return h, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func withDefaults(h domain.Horoscope) domain.Horoscope {
	if h.Timezone == "" {
		h.Timezone = domain.DefaultTimezone
	}
	if h.Locale == "" {
		h.Locale = domain.DefaultLocale
	}
	return h
}

// Upsert вставляет запись или полностью заменяет изменяемые поля при конфликте (sun_sign, date).
// Подзапрос в RETURNING читает снимок до начала команды, поэтому отдаёт прежний published.
func (p *Postgres) Upsert(ctx context.Context, h domain.Horoscope) (domain.Horoscope, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	h = withDefaults(h)
	cols, err := encodeColumns(h)
	if err != nil {
		return domain.Horoscope{}, false, err
	}
	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO horoscopes (date, timezone, locale, sun_sign, summary, theme, notification_text,
	sections, dos_and_donts, lucky, mood_ratings, affirmation, chart_snippet, comparison,
	explanation, generation_metadata, published)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (sun_sign, date) DO UPDATE SET
	timezone = EXCLUDED.timezone, locale = EXCLUDED.locale, summary = EXCLUDED.summary,
	theme = EXCLUDED.theme, notification_text = EXCLUDED.notification_text,
	sections = EXCLUDED.sections, dos_and_donts = EXCLUDED.dos_and_donts, lucky = EXCLUDED.lucky,
	mood_ratings = EXCLUDED.mood_ratings, affirmation = EXCLUDED.affirmation,
	chart_snippet = EXCLUDED.chart_snippet, comparison = EXCLUDED.comparison,
	explanation = EXCLUDED.explanation, generation_metadata = EXCLUDED.generation_metadata,
	published = EXCLUDED.published, updated_at = now()
RETURNING `+horoscopeColumns+`,
	COALESCE((SELECT prev.published FROM horoscopes prev WHERE prev.sun_sign = $4 AND prev.date = $1), false)`,
		h.Date, h.Timezone, h.Locale, string(h.Sign), h.Summary, h.Theme, h.NotificationText,
		cols.sections, cols.dosAndDonts, cols.lucky, cols.mood, h.Affirmation, cols.chart, cols.comparison,
		h.Explanation, cols.meta, h.Published)
	var wasPublished bool
	stored, err := scanHoroscope(row, &wasPublished)
	metrics.ObserveNetworkRequest("postgres", "horoscopes_upsert", "horoscopes", start, err)
	if err != nil {
		return domain.Horoscope{}, false, domain.StoreError("upsert", err)
	}
	return stored, wasPublished, nil
}

// InsertIfAbsent вставляет запись, не трогая существующую. Возвращает true, если строка создана.
func (p *Postgres) InsertIfAbsent(ctx context.Context, h domain.Horoscope) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	h = withDefaults(h)
	cols, err := encodeColumns(h)
	if err != nil {
		return false, err
	}
	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
INSERT INTO horoscopes (date, timezone, locale, sun_sign, summary, theme, notification_text,
	sections, dos_and_donts, lucky, mood_ratings, affirmation, chart_snippet, comparison,
	explanation, generation_metadata, published)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (sun_sign, date) DO NOTHING`,
		h.Date, h.Timezone, h.Locale, string(h.Sign), h.Summary, h.Theme, h.NotificationText,
		cols.sections, cols.dosAndDonts, cols.lucky, cols.mood, h.Affirmation, cols.chart, cols.comparison,
		h.Explanation, cols.meta, h.Published)
	metrics.ObserveNetworkRequest("postgres", "horoscopes_insert_if_absent", "horoscopes", start, err)
	if err != nil {
		return false, domain.StoreError("insert", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindByID возвращает запись по идентификатору.
func (p *Postgres) FindByID(ctx context.Context, id int64) (domain.Horoscope, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	h, err := scanHoroscope(p.pool.QueryRow(ctx, `SELECT `+horoscopeColumns+` FROM horoscopes WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "horoscopes_find_by_id", "horoscopes", start, nil)
		return domain.Horoscope{}, &domain.NotFoundError{Message: "Horoscope not found"}
	}
	metrics.ObserveNetworkRequest("postgres", "horoscopes_find_by_id", "horoscopes", start, err)
	if err != nil {
		return domain.Horoscope{}, domain.StoreError("find by id", err)
	}
	return h, nil
}

// Delete удаляет запись.
func (p *Postgres) Delete(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM horoscopes WHERE id = $1`, id)
	metrics.ObserveNetworkRequest("postgres", "horoscopes_delete", "horoscopes", start, err)
	if err != nil {
		return domain.StoreError("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Message: "Horoscope not found"}
	}
	return nil
}

// FindPublished возвращает опубликованную запись пары (sign, date).
func (p *Postgres) FindPublished(ctx context.Context, sign domain.Sign, date string) (domain.Horoscope, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	h, err := scanHoroscope(p.pool.QueryRow(ctx, `
SELECT `+horoscopeColumns+` FROM horoscopes
WHERE sun_sign = $1 AND date = $2 AND published = true`, string(sign), date))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "horoscopes_find_published", "horoscopes", start, nil)
		return domain.Horoscope{}, domain.HoroscopeUnavailable(sign, date)
	}
	metrics.ObserveNetworkRequest("postgres", "horoscopes_find_published", "horoscopes", start, err)
	if err != nil {
		return domain.Horoscope{}, domain.StoreError("find published", err)
	}
	return h, nil
}

// FindPublishedBatch возвращает опубликованные записи знаков за дату одним IN-запросом.
func (p *Postgres) FindPublishedBatch(ctx context.Context, signs []domain.Sign, date string) ([]domain.Horoscope, error) {
	if len(signs) == 0 {
		return nil, nil
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	names := make([]string, len(signs))
	for i, s := range signs {
		names[i] = string(s)
	}
	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+horoscopeColumns+` FROM horoscopes
WHERE sun_sign = ANY($1) AND date = $2 AND published = true`, names, date)
	if err != nil {
		metrics.ObserveNetworkRequest("postgres", "horoscopes_find_published_batch", "horoscopes", start, err)
		return nil, domain.StoreError("find published batch", err)
	}
	out, err := collect(rows)
	metrics.ObserveNetworkRequest("postgres", "horoscopes_find_published_batch", "horoscopes", start, err)
	if err != nil {
		return nil, domain.StoreError("find published batch", err)
	}
	return out, nil
}

// Query возвращает страницу записей и общее количество под фильтрами.
func (p *Postgres) Query(ctx context.Context, q domain.HoroscopeQuery) ([]domain.Horoscope, int, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	q = q.Normalize()
	where, args := buildFilter(q)

	start := time.Now()
	var total int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM horoscopes`+where, args...).Scan(&total)
	metrics.ObserveNetworkRequest("postgres", "horoscopes_count", "horoscopes", start, err)
	if err != nil {
		return nil, 0, domain.StoreError("count", err)
	}

	stmt, args := pageQuery(q, where, args)

	start = time.Now()
	rows, err := p.pool.Query(ctx, stmt, args...)
	if err != nil {
		metrics.ObserveNetworkRequest("postgres", "horoscopes_query", "horoscopes", start, err)
		return nil, 0, domain.StoreError("query", err)
	}
	out, err := collect(rows)
	metrics.ObserveNetworkRequest("postgres", "horoscopes_query", "horoscopes", start, err)
	if err != nil {
		return nil, 0, domain.StoreError("query", err)
	}
	return out, total, nil
}

// orderClause: при фильтре по дате знаки идут по алфавиту, иначе новые даты первыми.
func orderClause(q domain.HoroscopeQuery) string {
	if q.Date != "" {
		return ` ORDER BY sun_sign ASC, date DESC`
	}
	return ` ORDER BY date DESC, sun_sign ASC`
}

// pageQuery дописывает к фильтру порядок и LIMIT/OFFSET с номерами параметров после аргументов фильтра.
func pageQuery(q domain.HoroscopeQuery, where string, args []any) (string, []any) {
	args = append(args, q.Limit, q.Offset())
	stmt := `SELECT ` + horoscopeColumns + ` FROM horoscopes` + where + orderClause(q) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	return stmt, args
}

func buildFilter(q domain.HoroscopeQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Date != "" {
		args = append(args, q.Date)
		conds = append(conds, fmt.Sprintf("date = $%d", len(args)))
	}
	if q.Sign != "" {
		args = append(args, string(q.Sign))
		conds = append(conds, fmt.Sprintf("sun_sign = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SetPublished переключает флаг публикации и возвращает прежнее значение флага.
func (p *Postgres) SetPublished(ctx context.Context, id int64, published bool) (domain.Horoscope, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var wasPublished bool
	start := time.Now()
	h, err := scanHoroscope(p.pool.QueryRow(ctx, `
UPDATE horoscopes SET published = $1, updated_at = now() WHERE id = $2
RETURNING `+horoscopeColumns+`, (SELECT prev.published FROM horoscopes prev WHERE prev.id = $2)`,
		published, id), &wasPublished)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "horoscopes_set_published", "horoscopes", start, nil)
		return domain.Horoscope{}, false, &domain.NotFoundError{Message: "Horoscope not found"}
	}
	metrics.ObserveNetworkRequest("postgres", "horoscopes_set_published", "horoscopes", start, err)
	if err != nil {
		return domain.Horoscope{}, false, domain.StoreError("set published", err)
	}
	return h, wasPublished, nil
}

// DateSummary считает записи по датам в диапазоне [from, to].
func (p *Postgres) DateSummary(ctx context.Context, from, to string) ([]domain.DateCount, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT date, COUNT(*), COUNT(*) FILTER (WHERE published)
FROM horoscopes
WHERE date BETWEEN $1 AND $2
GROUP BY date
ORDER BY date DESC`, from, to)
	if err != nil {
		metrics.ObserveNetworkRequest("postgres", "horoscopes_date_summary", "horoscopes", start, err)
		return nil, domain.StoreError("date summary", err)
	}
	defer rows.Close()
	var out []domain.DateCount
	for rows.Next() {
		var dc domain.DateCount
		if err := rows.Scan(&dc.Date, &dc.Count, &dc.Published); err != nil {
			return nil, domain.StoreError("date summary", err)
		}
		out = append(out, dc)
	}
	err = rows.Err()
	metrics.ObserveNetworkRequest("postgres", "horoscopes_date_summary", "horoscopes", start, err)
	if err != nil {
		return nil, domain.StoreError("date summary", err)
	}
	return out, nil
}

func collect(rows pgx.Rows) ([]domain.Horoscope, error) {
	defer rows.Close()
	var out []domain.Horoscope
	for rows.Next() {
		h, err := scanHoroscope(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
