package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront_backend/internal/directory"
	"storefront_backend/internal/directory/cache"
	apphttp "storefront_backend/internal/http"
	"storefront_backend/internal/http/router"
	"storefront_backend/internal/maps"
	"storefront_backend/internal/scheduler"
	"storefront_backend/platform/config"
	"storefront_backend/platform/logger"
	"storefront_backend/platform/validator"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	store, health, closeStore := initCacheStore(ctx, cfg, log)
	if closeStore != nil {
		defer closeStore()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	mapsModule := maps.NewModule(cfg, val, log)
	directoryModule, err := directory.NewModule(cfg, store, directory.MapsGeocoder{Service: mapsModule.Service()}, val, log)
	if err != nil {
		log.Error("failed to initialize directory module", "error", err)
		panic("failed to initialize directory module: " + err.Error())
	}
	directoryModule.Start(ctx)
	defer directoryModule.Close()

	enqueueStartupWarm(ctx, cfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: health,
		Modules: []apphttp.Module{
			directoryModule,
			mapsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initCacheStore returns the Redis-backed store when REDIS_URL is set and an
// in-process store otherwise. The health checker is nil without Redis.
func initCacheStore(ctx context.Context, cfg config.CacheConfig, log *logger.Logger) (cache.Store, apphttp.HealthChecker, func()) {
	if !cfg.IsRedisEnabled() {
		log.Warn("REDIS_URL not configured; directory cache is per-process")
		return cache.NewMemoryStore(), nil, nil
	}

	client, err := cache.NewRedisClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err)
		panic("invalid REDIS_URL: " + err.Error())
	}
	store := cache.NewRedisStore(client)
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		return store.Ping(ctx)
	}); err != nil {
		// The cache degrades to misses, so a missing Redis is not fatal.
		log.Error("redis unreachable; continuing with cache misses", "error", err)
	} else {
		log.Info("redis connection established")
	}
	return store, store, func() { _ = client.Close() }
}

func enqueueStartupWarm(ctx context.Context, cfg config.SchedulerConfig, log *logger.Logger) {
	if cfg.GetRedisURL() == "" {
		return
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return
	}
	defer func() { _ = client.Close() }()

	if err := client.EnqueueCacheWarm(ctx, scheduler.CacheWarmPayload{}); err != nil {
		log.Warn("failed to enqueue startup cache warm-up", "error", err)
		return
	}
	log.Info("startup cache warm-up enqueued")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
