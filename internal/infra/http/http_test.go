package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horoscope-hub/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		reason string
	}{
		{domain.ErrInvalidSign, 400, "invalid_sign"},
		{domain.NewValidationError("date", "bad date"), 400, "validation_error"},
		{domain.HoroscopeUnavailable(domain.Leo, "2025-03-01"), 404, "not_found"},
		{fmt.Errorf("wrap: %w", &domain.NotFoundError{Message: "User not found"}), 404, "not_found"},
		{&domain.CooldownError{SecondsLeft: 30}, 429, "otp_cooldown"},
		{domain.ErrOTPInvalid, 400, "invalid_otp"},
		{domain.ErrOTPAttempts, 400, "otp_attempts_exceeded"},
		{domain.ErrUnauthorized, 401, "unauthorized"},
		{domain.ErrForbidden, 403, "forbidden"},
		{domain.StoreError("select", errors.New("conn reset")), 500, "store_unavailable"},
		{domain.CacheError("scan", errors.New("conn reset")), 503, "cache_unavailable"},
		{errors.New("boom"), 500, "internal_error"},
	}
	for _, tc := range cases {
		f := Classify(tc.err)
		assert.Equal(t, tc.status, f.Status, "статус для %v", tc.err)
		assert.Equal(t, tc.reason, f.Body.Reason, "причина для %v", tc.err)
	}

	f := Classify(domain.StoreError("select", errors.New("password authentication failed for user x")))
	assert.NotContains(t, f.Body.Message, "password", "внутренние сообщения не должны уходить клиенту")
	assert.Equal(t, "Horoscope not available for Leo on 2025-03-01", Classify(domain.HoroscopeUnavailable(domain.Leo, "2025-03-01")).Body.Message)
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	WriteError(rec, req, zerolog.Nop(), &domain.CooldownError{SecondsLeft: 42})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, 42, env.Error.TimeLeft)
	assert.Equal(t, "otp_cooldown", env.Error.Reason)
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	WriteOK(w, "", map[string]string{"user": p.UserID})
}

func TestBearerAuthAndAdminOnly(t *testing.T) {
	authn := func(token string) (Principal, error) {
		switch token {
		case "user":
			return Principal{UserID: "u1"}, nil
		case "admin":
			return Principal{UserID: "admin", IsAdmin: true}, nil
		}
		return Principal{}, domain.ErrUnauthorized
	}
	h := BearerAuth(authn)(AdminOnly(http.HandlerFunc(okHandler)))

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer ", http.StatusUnauthorized},
		{"Basic admin", http.StatusUnauthorized},
		{"Bearer nope", http.StatusUnauthorized},
		{"Bearer user", http.StatusForbidden},
		{"Bearer admin", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, "заголовок %q", tc.header)
	}
}

type counterKV struct {
	domain.KV
	counts map[string]int64
	err    error
}

func (c *counterKV) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.counts[key]++
	return c.counts[key], nil
}

func TestRateLimit(t *testing.T) {
	kv := &counterKV{counts: map[string]int64{}}
	h := RateLimit(kv, 2, zerolog.Nop())(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = fmt.Sprintf("10.0.0.1:%d", 40000+i)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes, "порт клиента не должен влиять на лимит")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	kv := &counterKV{err: errors.New("redis down")}
	h := RateLimit(kv, 1, zerolog.Nop())(http.HandlerFunc(okHandler))
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
