package service

import (
	"context"
	"testing"
	"time"

	"storefront_backend/internal/directory/cache"
	"storefront_backend/internal/directory/domain"
	"storefront_backend/platform/apperr"
	"storefront_backend/platform/logger"
)

func TestFetchWithinTTLIssuesNoNetworkCall(t *testing.T) {
	backend := &fakeBackend{places: makePlaces(3)}
	clock := newTestClock()
	rc := cache.New(cache.NewMemoryStore(), "t", logger.Discard(), cache.WithClock(clock.Now))
	f := NewFetcher(backend, logger.Discard())
	filters := domain.Filters{Search: "coffee"}

	first, err := f.Fetch(context.Background(), rc, filters)
	if err != nil || first.FromCache {
		t.Fatalf("expected network fetch, got %+v %v", first, err)
	}
	for i := 0; i < 3; i++ {
		clock.Advance(2 * time.Minute)
		res, err := f.Fetch(context.Background(), rc, filters)
		if err != nil || !res.FromCache || len(res.Places) != 3 {
			t.Fatalf("expected cached collection, got %+v %v", res, err)
		}
	}
	if backend.calls() != 1 {
		t.Fatalf("expected exactly one network call, got %d", backend.calls())
	}
}

func TestFetchAfterTTLRefetches(t *testing.T) {
	backend := &fakeBackend{places: makePlaces(3)}
	clock := newTestClock()
	rc := cache.New(cache.NewMemoryStore(), "t", logger.Discard(), cache.WithClock(clock.Now))
	f := NewFetcher(backend, logger.Discard())
	filters := domain.Filters{Search: "coffee"}

	_, _ = f.Fetch(context.Background(), rc, filters)
	clock.Advance(11 * time.Minute)
	res, err := f.Fetch(context.Background(), rc, filters)
	if err != nil || res.FromCache {
		t.Fatalf("expected a fresh fetch after the ttl, got %+v %v", res, err)
	}
	if backend.calls() != 2 {
		t.Fatalf("expected two network calls, got %d", backend.calls())
	}
}

func TestFetchKeyIgnoresRegionAndCity(t *testing.T) {
	backend := &fakeBackend{places: makePlaces(3)}
	rc := cache.New(cache.NewMemoryStore(), "t", logger.Discard())
	f := NewFetcher(backend, logger.Discard())

	_, _ = f.Fetch(context.Background(), rc, domain.Filters{Search: "tea", Region: "North"})
	_, _ = f.Fetch(context.Background(), rc, domain.Filters{Search: "tea", Region: "South", City: "Town"})
	if backend.calls() != 1 {
		t.Fatalf("expected region/city changes to reuse the cache, got %d calls", backend.calls())
	}
	if q := backend.queries[0]; q.Search != "tea" || q.Category != "" {
		t.Fatalf("unexpected query %+v", q)
	}

	_, _ = f.Fetch(context.Background(), rc, domain.Filters{Search: "tea", Category: "bakery"})
	if backend.calls() != 2 {
		t.Fatalf("expected category change to refetch, got %d calls", backend.calls())
	}
}

func TestFetchFailureLeavesCacheUntouched(t *testing.T) {
	backend := &fakeBackend{places: makePlaces(2)}
	rc := cache.New(cache.NewMemoryStore(), "t", logger.Discard())
	f := NewFetcher(backend, logger.Discard())

	_, _ = f.Fetch(context.Background(), rc, domain.Filters{Search: "a"})
	backend.setPlaces(nil, apperr.Unavailable("content backend unreachable", nil))

	if _, err := f.Fetch(context.Background(), rc, domain.Filters{Search: "b"}); !apperr.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if places, ok := rc.Get(context.Background(), KeyFor(domain.Filters{Search: "a"})); !ok || len(places) != 2 {
		t.Fatalf("expected previous cache entry to survive a failed fetch")
	}
}

func TestKeyForTreatsAllCategoryAsUnset(t *testing.T) {
	if KeyFor(domain.Filters{Category: "all"}) != KeyFor(domain.Filters{}) {
		t.Fatalf("expected wildcard category to match unset category")
	}
}

func TestFetchAbandonedByCallerStillFillsCache(t *testing.T) {
	backend := &fakeBackend{places: makePlaces(3), block: make(chan struct{})}
	rc := cache.New(cache.NewMemoryStore(), "t", logger.Discard())
	f := NewFetcher(backend, logger.Discard())
	filters := domain.Filters{Search: "honey"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctx, rc, filters)
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for backend.calls() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("fetch never reached the backend")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	close(backend.block)

	if err := <-done; !apperr.Is(err, apperr.KindCanceled) {
		t.Fatalf("expected canceled for the abandoned caller, got %v", err)
	}
	res, err := f.Fetch(context.Background(), rc, filters)
	if err != nil || !res.FromCache || len(res.Places) != 3 {
		t.Fatalf("expected the shared result to be cached, got %+v %v", res, err)
	}
	if backend.calls() != 1 {
		t.Fatalf("expected one network call, got %d", backend.calls())
	}
}
