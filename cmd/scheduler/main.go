package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"storefront_backend/internal/directory"
	"storefront_backend/internal/directory/cache"
	"storefront_backend/internal/scheduler"
	"storefront_backend/platform/config"
	"storefront_backend/platform/logger"
	"storefront_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "warmInterval", cfg.GetWarmInterval().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.IsRedisEnabled() {
		panic("REDIS_URL is required for the scheduler")
	}

	client, err := cache.NewRedisClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err)
		panic("invalid REDIS_URL: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	// Worker-side directory wiring; warm-ups write the shared cache scope the
	// API reads from. No HTTP handlers and no geocoder are needed here.
	directoryModule, err := directory.NewModule(cfg, cache.NewRedisStore(client), nil, validator.New(), log)
	if err != nil {
		log.Error("failed to initialize directory module", "error", err)
		panic("failed to initialize directory module: " + err.Error())
	}
	defer directoryModule.Close()

	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}
	go periodic.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, directoryModule.Manager(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}
