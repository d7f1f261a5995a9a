package repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"horoscope-hub/internal/domain"
)

func TestPageQuery(t *testing.T) {
	cases := []struct {
		name  string
		q     domain.HoroscopeQuery
		where string
		tail  string
		args  []any
	}{
		{
			name: "без фильтров",
			q:    domain.HoroscopeQuery{Page: 2, Limit: 10},
			tail: " FROM horoscopes ORDER BY date DESC, sun_sign ASC LIMIT $1 OFFSET $2",
			args: []any{10, 10},
		},
		{
			name:  "только дата",
			q:     domain.HoroscopeQuery{Date: "2025-01-15", Page: 1, Limit: 20},
			where: " WHERE date = $1",
			tail:  " FROM horoscopes WHERE date = $1 ORDER BY sun_sign ASC, date DESC LIMIT $2 OFFSET $3",
			args:  []any{"2025-01-15", 20, 0},
		},
		{
			name:  "только знак",
			q:     domain.HoroscopeQuery{Sign: domain.Leo, Page: 3, Limit: 5},
			where: " WHERE sun_sign = $1",
			tail:  " FROM horoscopes WHERE sun_sign = $1 ORDER BY date DESC, sun_sign ASC LIMIT $2 OFFSET $3",
			args:  []any{"Leo", 5, 10},
		},
		{
			name:  "дата и знак",
			q:     domain.HoroscopeQuery{Date: "2025-01-15", Sign: domain.Aries, Page: 1, Limit: 20},
			where: " WHERE date = $1 AND sun_sign = $2",
			tail:  " FROM horoscopes WHERE date = $1 AND sun_sign = $2 ORDER BY sun_sign ASC, date DESC LIMIT $3 OFFSET $4",
			args:  []any{"2025-01-15", "Aries", 20, 0},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			where, args := buildFilter(tc.q)
			assert.Equal(t, tc.where, where, "фильтр")

			stmt, args := pageQuery(tc.q, where, args)
			assert.True(t, strings.HasPrefix(stmt, "SELECT "+horoscopeColumns), "список колонок")
			assert.True(t, strings.HasSuffix(stmt, tc.tail), "хвост запроса: %s", stmt)
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, " ORDER BY sun_sign ASC, date DESC", orderClause(domain.HoroscopeQuery{Date: "2025-01-15"}))
	assert.Equal(t, " ORDER BY date DESC, sun_sign ASC", orderClause(domain.HoroscopeQuery{}))
	assert.Equal(t, " ORDER BY date DESC, sun_sign ASC", orderClause(domain.HoroscopeQuery{Sign: domain.Leo}))
}
