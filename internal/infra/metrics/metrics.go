package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	CacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "horoscope_cache_requests_total",
		Help: "Обращения к кэшу гороскопов по результату",
	}, []string{"result"})

	ResolveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "horoscope_resolve_total",
		Help: "Разрешения контента по пути и статусу",
	}, []string{"path", "status"})

	AdminWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "horoscope_admin_writes_total",
		Help: "Админские изменения контента",
	}, []string{"operation", "status"})

	OTPSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "otp_sent_total",
		Help: "Отправленные коды подтверждения",
	}, []string{"provider", "status"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		CacheRequests,
		ResolveTotal,
		AdminWrites,
		OTPSent,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveCache учитывает попадание, промах или ошибку кэша.
func ObserveCache(result string) {
	CacheRequests.WithLabelValues(result).Inc()
}

// ObserveResolve учитывает результат разрешения контента.
func ObserveResolve(path string, err error) {
	ResolveTotal.WithLabelValues(path, statusOf(err)).Inc()
}

// ObserveAdminWrite учитывает админскую операцию.
func ObserveAdminWrite(operation string, err error) {
	AdminWrites.WithLabelValues(operation, statusOf(err)).Inc()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
