package scheduler

import (
	"context"
	"fmt"

	"storefront_backend/platform/config"
	"storefront_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// CacheWarmer refills the shared directory cache.
type CacheWarmer interface {
	Warm(ctx context.Context, search, category string) (int, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	warmer CacheWarmer
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, warmer CacheWarmer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 2
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(warmer, log)
	w.server = server
	return w, nil
}

func newWorker(warmer CacheWarmer, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		mux:    mux,
		warmer: warmer,
		log:    log,
	}
	mux.HandleFunc(TaskDirectoryCacheWarm, w.handleCacheWarm)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleCacheWarm(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCacheWarmPayload(task)
	if err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", TaskDirectoryCacheWarm, err, asynq.SkipRetry)
	}

	count, err := w.warmer.Warm(ctx, payload.Search, payload.Category)
	if err != nil {
		w.log.Warn("directory cache warm failed", "search", payload.Search, "category", payload.Category, "error", err)
		return err
	}

	w.log.Info("directory cache warmed", "search", payload.Search, "category", payload.Category, "places", count)
	return nil
}
