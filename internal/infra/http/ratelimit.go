package http

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"horoscope-hub/internal/domain"
)

// RateLimit ограничивает число запросов с одного IP в минуту (фиксированное окно в KV).
// perMinute <= 0 отключает лимит. При недоступности KV запрос пропускается.
func RateLimit(kv domain.KV, perMinute int, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if perMinute <= 0 || kv == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			window := time.Now().Unix() / 60
			key := fmt.Sprintf("ratelimit:%s:%d", clientIP(r), window)
			n, err := kv.Incr(r.Context(), key, time.Minute)
			if err != nil {
				log.Warn().Err(err).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			remaining := max(perMinute-int(n), 0)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(perMinute))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if n > int64(perMinute) {
				w.Header().Set("Retry-After", strconv.FormatInt(60-time.Now().Unix()%60, 10))
				WriteFail(w, http.StatusTooManyRequests, "rate_limited", "Too many requests, please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
