package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type fakeWarmer struct {
	search, category string
	calls            int
	err              error
}

func (f *fakeWarmer) Warm(_ context.Context, search, category string) (int, error) {
	f.calls++
	f.search, f.category = search, category
	return 42, f.err
}

func TestHandleCacheWarm(t *testing.T) {
	warmer := &fakeWarmer{}
	w := newWorker(warmer, logger.Discard())

	task, err := NewCacheWarmTask(CacheWarmPayload{Search: "bread", Category: "7"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := w.handleCacheWarm(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warmer.calls != 1 || warmer.search != "bread" || warmer.category != "7" {
		t.Fatalf("unexpected warm call %+v", warmer)
	}
}

func TestHandleCacheWarmEmptyPayload(t *testing.T) {
	warmer := &fakeWarmer{}
	w := newWorker(warmer, logger.Discard())

	if err := w.handleCacheWarm(context.Background(), asynq.NewTask(TaskDirectoryCacheWarm, nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warmer.calls != 1 || warmer.search != "" {
		t.Fatalf("expected an unfiltered warm-up, got %+v", warmer)
	}
}

func TestHandleCacheWarmBadPayloadSkipsRetry(t *testing.T) {
	w := newWorker(&fakeWarmer{}, logger.Discard())

	err := w.handleCacheWarm(context.Background(), asynq.NewTask(TaskDirectoryCacheWarm, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestHandleCacheWarmPropagatesFailure(t *testing.T) {
	boom := errors.New("content api down")
	w := newWorker(&fakeWarmer{err: boom}, logger.Discard())

	task, _ := NewCacheWarmTask(CacheWarmPayload{})
	if err := w.handleCacheWarm(context.Background(), task); !errors.Is(err, boom) {
		t.Fatalf("expected failure to be retried, got %v", err)
	}
}

func TestEverySpec(t *testing.T) {
	spec, err := everySpec(9 * time.Minute)
	if err != nil || spec != "@every 9m0s" {
		t.Fatalf("unexpected spec %q (%v)", spec, err)
	}
	if _, err := everySpec(30 * time.Second); err == nil {
		t.Fatalf("expected sub-minute interval to be rejected")
	}
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@localhost:6380/2", true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opt.Addr != "localhost:6380" || opt.Password != "secret" || opt.DB != 2 {
		t.Fatalf("unexpected opt %+v", opt)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatalf("expected insecure TLS config")
	}

	if _, err := redisClientOpt("not a url", false); err == nil {
		t.Fatalf("expected parse error")
	}
}
