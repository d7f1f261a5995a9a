package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS horoscopes (
	id BIGSERIAL PRIMARY KEY,
	date VARCHAR(10) NOT NULL,
	timezone VARCHAR(50) NOT NULL DEFAULT 'Asia/Kolkata',
	locale VARCHAR(10) NOT NULL DEFAULT 'en-IN',
	sun_sign VARCHAR(20) NOT NULL,
	summary TEXT,
	theme VARCHAR(50),
	notification_text VARCHAR(80),
	sections JSONB NOT NULL,
	dos_and_donts JSONB,
	lucky JSONB,
	mood_ratings JSONB,
	affirmation TEXT,
	chart_snippet JSONB,
	comparison JSONB,
	explanation TEXT,
	generation_metadata JSONB,
	published BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (sun_sign, date)
)`,
	`CREATE INDEX IF NOT EXISTS horoscopes_date_idx ON horoscopes (date DESC)`,
	`CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	phone_number VARCHAR(16) NOT NULL UNIQUE,
	is_verified BOOLEAN NOT NULL DEFAULT false,
	is_active BOOLEAN NOT NULL DEFAULT true,
	is_admin BOOLEAN NOT NULL DEFAULT false,
	profile JSONB NOT NULL DEFAULT '{}'::jsonb,
	birth_chart JSONB NOT NULL DEFAULT '{}'::jsonb,
	preferences JSONB NOT NULL DEFAULT '{}'::jsonb,
	subscription VARCHAR(16) NOT NULL DEFAULT 'free',
	last_active TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS user_stats (
	id BIGSERIAL PRIMARY KEY,
	user_id VARCHAR(255) NOT NULL UNIQUE,
	horoscope_views INTEGER NOT NULL DEFAULT 0,
	profile_updates INTEGER NOT NULL DEFAULT 0,
	last_active TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
}

// Migrate создаёт таблицы, если их ещё нет.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema step %d: %w", i, err)
		}
	}
	return nil
}
