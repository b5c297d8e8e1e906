package scheduler

import (
	"context"
	"fmt"
	"time"

	"storefront_backend/platform/config"
	"storefront_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues the directory cache warm-up on a fixed interval.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	spec, err := everySpec(cfg.GetWarmInterval())
	if err != nil {
		return nil, err
	}

	task, err := NewCacheWarmTask(CacheWarmPayload{})
	if err != nil {
		return nil, err
	}

	s := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				log.Warn("failed to enqueue periodic task", "task", TaskDirectoryCacheWarm, "error", err)
			}
		},
	})
	if _, err := s.Register(spec, task, warmTaskOptions(queueName(cfg))...); err != nil {
		return nil, err
	}

	return &Periodic{scheduler: s, log: log}, nil
}

func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}
	if err := p.scheduler.Start(); err != nil {
		p.log.Error("periodic scheduler stopped", "error", err)
		return
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
}

// everySpec converts an interval into an asynq "@every" spec.
func everySpec(interval time.Duration) (string, error) {
	if interval < time.Minute {
		return "", fmt.Errorf("warm interval must be at least one minute, got %s", interval)
	}
	return "@every " + interval.String(), nil
}
