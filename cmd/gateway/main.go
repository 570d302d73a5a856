package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/api"
	"github.com/lalithlochan/courier/internal/circuitbreaker"
	"github.com/lalithlochan/courier/internal/config"
	"github.com/lalithlochan/courier/internal/dispatch"
	"github.com/lalithlochan/courier/internal/observ"
	"github.com/lalithlochan/courier/internal/profile"
	"github.com/lalithlochan/courier/internal/redis"
	"github.com/lalithlochan/courier/internal/store"
	"github.com/lalithlochan/courier/internal/subscription"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel, "courier-gateway")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting courier gateway",
		zap.String("env", cfg.Env),
		zap.Int("port", cfg.Port),
		zap.String("store", cfg.StoreDriver),
		zap.String("transport", cfg.JobTransport),
	)

	ctx := context.Background()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	checks := []api.HealthCheck{{Name: "store", Check: st.Health}}

	// Redis is optional: without it dispatch is neither idempotent nor rate limited.
	var (
		idempotency *redis.IdempotencyService
		limiter     api.Limiter
	)
	if cfg.RedisHost != "" {
		redisClient, err := redis.New(ctx, redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			logger.Warn("redis unavailable, idempotency and rate limiting disabled",
				zap.Error(err),
				zap.String("host", cfg.RedisHost),
			)
		} else {
			defer redisClient.Close()
			idempotency = redis.NewIdempotencyService(redisClient, cfg.IdempotencyTTL, logger)
			limiter = redis.NewRateLimiter(redisClient, logger, redis.RateLimitConfig{
				Limit:  cfg.RateLimitRequests,
				Window: cfg.RateLimitWindow,
			})
			checks = append(checks, api.HealthCheck{Name: "redis", Check: redisClient.Ping})
		}
	}

	sinks, breakers, err := buildSinks(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build job sinks: %w", err)
	}

	matcher := subscription.NewMatcher(st, logger)
	dispatcher := dispatch.New(matcher, st, profile.NewDemoDirectory(), sinks, logger)

	handler := api.NewHandler(logger, dispatcher, matcher, st, st)
	if idempotency != nil {
		handler.WithIdempotency(idempotency)
	}

	router := api.NewRouter(handler, limiter, api.HealthHandler(checks, breakers, logger), logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		// Give outstanding requests 10 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		logger.Info("server stopped gracefully")
	}

	return nil
}

func breakerConfig(cfg *config.Config, name string) circuitbreaker.Config {
	c := circuitbreaker.DefaultConfig(name)
	c.MaxFailures = cfg.BreakerMaxFailures
	c.RecoveryTimeout = cfg.BreakerRecoveryTimeout
	c.OnStateChange = onBreakerStateChange
	return c
}
