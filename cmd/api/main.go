package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"horoscope-hub/internal/adapters/httpapi"
	"horoscope-hub/internal/adapters/otp"
	"horoscope-hub/internal/adapters/repo"
	"horoscope-hub/internal/domain"
	"horoscope-hub/internal/infra/cache"
	"horoscope-hub/internal/infra/config"
	"horoscope-hub/internal/infra/db"
	httpinfra "horoscope-hub/internal/infra/http"
	applog "horoscope-hub/internal/infra/log"
	"horoscope-hub/internal/infra/metrics"
	"horoscope-hub/internal/infra/queue"
	"horoscope-hub/internal/usecase/auth"
	"horoscope-hub/internal/usecase/dashboard"
	"horoscope-hub/internal/usecase/horoscope"
	"horoscope-hub/internal/usecase/profile"
)

func main() {
	cfg := config.Load()
	log := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PG.DSN, cfg.PG.MaxConns)
	if err != nil {
		log.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("api: миграция схемы")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("api: redis недоступен, кэш и лимиты будут деградировать")
	}

	loc := cfg.Location()
	store := repo.NewPostgres(pool)
	kv := cache.NewRedis(rdb)
	contentCache := newContentCache(cfg, rdb, log)

	notifications, closeQueue, err := newNotificationQueue(cfg, rdb)
	if err != nil {
		log.Fatal().Err(err).Msg("api: очередь уведомлений")
	}
	defer closeQueue()

	sender, provider := otp.New(cfg.OTP.Provider, otp.MSG91Config{
		BaseURL:    cfg.MSG91.BaseURL,
		APIKey:     cfg.MSG91.APIKey,
		TemplateID: cfg.MSG91.TemplateID,
		Timeout:    cfg.MSG91.Timeout,
	}, log.With().Str("component", "otp").Logger())

	tokens := auth.NewTokens(auth.TokenConfig{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	}, kv)
	authService := auth.NewService(store, kv, sender, tokens, auth.Config{
		OTPTTL:        cfg.OTP.TTL,
		MaxAttempts:   cfg.OTP.MaxAttempts,
		DummyCode:     cfg.OTP.DummyCode,
		Dev:           cfg.IsDev(),
		Provider:      provider,
		AdminUsername: cfg.Admin.Username,
		AdminHash:     cfg.Admin.PasswordHash,
	}, log.With().Str("component", "auth").Logger())

	resolver := horoscope.NewResolver(store, contentCache, loc, log.With().Str("component", "resolver").Logger())
	admin := horoscope.NewAdmin(store, contentCache, notifications, log.With().Str("component", "admin_content").Logger())
	profiles := profile.NewService(store, store, resolver, loc, log.With().Str("component", "profile").Logger())
	dash := dashboard.NewService(store, store, store, loc)

	srv := httpinfra.NewServer(log.With().Str("component", "http").Logger())
	httpapi.Mount(srv.Router, httpapi.Deps{
		Resolver:     resolver,
		Admin:        admin,
		Auth:         authService,
		Tokens:       tokens,
		Profile:      profiles,
		Dashboard:    dash,
		KV:           kv,
		RateLimitRPM: cfg.RateLimitRPM,
		Version:      cfg.APIVersion,
		Log:          log.With().Str("component", "api").Logger(),
	})

	metrics.StartServer(ctx, log.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)
	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			log.Error().Err(err).Msg("api: сервер остановлен")
			stop()
		}
	}()
	log.Info().Str("env", cfg.AppEnv).Str("otp", provider).Str("cache", cfg.Cache.Backend).
		Str("notify", cfg.Notify.Backend).Msg("api: старт")

	<-ctx.Done()
	log.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("api: ошибка остановки сервера")
	}
}

func newContentCache(cfg config.AppConfig, rdb *redis.Client, log zerolog.Logger) domain.HoroscopeCache {
	switch cfg.Cache.Backend {
	case "memory":
		return cache.NewMemory(cfg.Cache.MemoryMB, cfg.Cache.TTL)
	case "redis", "":
		return cache.NewHoroscopeRedis(rdb, cfg.Cache.TTL)
	default:
		log.Warn().Str("backend", cfg.Cache.Backend).Msg("api: неизвестный кэш, используется redis")
		return cache.NewHoroscopeRedis(rdb, cfg.Cache.TTL)
	}
}

func newNotificationQueue(cfg config.AppConfig, rdb *redis.Client) (domain.NotificationQueue, func(), error) {
	switch cfg.Notify.Backend {
	case "redis":
		return queue.NewRedisNotificationQueue(rdb, cfg.Notify.Queue), func() {}, nil
	case "rabbitmq":
		q, err := queue.NewRabbitNotificationQueue(cfg.Notify.AMQPURL, cfg.Notify.Queue)
		if err != nil {
			return nil, nil, err
		}
		return q, func() { _ = q.Close() }, nil
	default:
		return domain.NoopQueue{}, func() {}, nil
	}
}
