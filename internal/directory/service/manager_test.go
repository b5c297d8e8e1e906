package service

import (
	"context"
	"testing"
	"time"

	"storefront_backend/internal/directory/domain"
	"storefront_backend/platform/apperr"
)

func TestManagerGetAndEnd(t *testing.T) {
	m := newTestManager(&fakeBackend{places: makePlaces(2)}, newTestClock(), nil)
	s := m.Create(context.Background(), &domain.Filters{Search: "bread", PinnedID: "ignored"})

	got, err := m.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("expected to find session, got %v", err)
	}
	if v := s.View(context.Background()); v.Filters.Search != "bread" || v.Filters.PinnedID != "" || v.Filters.Region != domain.All {
		t.Fatalf("unexpected initial filters %+v", v.Filters)
	}

	if err := m.End(context.Background(), s.ID()); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, err := m.Get(s.ID()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found after end, got %v", err)
	}
	if err := m.End(context.Background(), s.ID()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for second end, got %v", err)
	}
}

func TestManagerSweepsIdleSessions(t *testing.T) {
	clock := newTestClock()
	m := newTestManager(&fakeBackend{places: makePlaces(2)}, clock, nil)
	idle := m.Create(context.Background(), nil)
	clock.Advance(20 * time.Minute)
	active := m.Create(context.Background(), nil)
	clock.Advance(15 * time.Minute)
	active.SetSort(domain.SortName)

	if swept := m.Sweep(context.Background()); swept != 1 {
		t.Fatalf("expected one idle session swept, got %d", swept)
	}
	if _, err := m.Get(idle.ID()); err == nil {
		t.Fatalf("expected idle session to be gone")
	}
	if _, err := m.Get(active.ID()); err != nil {
		t.Fatalf("expected active session to remain")
	}
}

func TestManagerSessionsHaveSeparateCaches(t *testing.T) {
	backend := &fakeBackend{places: makePlaces(2)}
	m := newTestManager(backend, newTestClock(), nil)

	m.Create(context.Background(), nil)
	m.Create(context.Background(), nil)
	if backend.calls() != 2 {
		t.Fatalf("expected one fetch per session, got %d", backend.calls())
	}
}

func TestManagerQueryUsesSharedCache(t *testing.T) {
	backend := &fakeBackend{places: makePlaces(30)}
	m := newTestManager(backend, newTestClock(), nil)

	in := QueryInput{Filters: domain.DefaultFilters(), Page: 2}
	v, err := m.Query(context.Background(), in)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if v.Page != 2 || len(v.Vendors) != 12 || v.FromCache {
		t.Fatalf("unexpected first view page=%d vendors=%d cached=%v", v.Page, len(v.Vendors), v.FromCache)
	}

	in.Filters.Region = "South"
	v, err = m.Query(context.Background(), in)
	if err != nil || !v.FromCache || v.Page != 1 || len(v.Vendors) != 5 {
		t.Fatalf("expected cached South view clamped to page 1, got %+v %v", v.Page, err)
	}
	if backend.calls() != 1 {
		t.Fatalf("expected a single fetch, got %d", backend.calls())
	}
}

func TestManagerQueryWithOriginDefaultsToDistance(t *testing.T) {
	m := newTestManager(&fakeBackend{places: makePlaces(5)}, newTestClock(), nil)
	v, err := m.Query(context.Background(), QueryInput{
		Filters: domain.DefaultFilters(),
		Origin:  &domain.Coordinate{Latitude: 40.1, Longitude: -75},
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if v.Sort != domain.SortDistance || v.Vendors[0].ID != "5" {
		t.Fatalf("expected nearest vendor first, got sort=%s first=%s", v.Sort, v.Vendors[0].ID)
	}
}

func TestManagerQueryReturnsFetchErrors(t *testing.T) {
	backend := &fakeBackend{}
	backend.setPlaces(nil, apperr.Unavailable("down", nil))
	m := newTestManager(backend, newTestClock(), nil)

	if _, err := m.Query(context.Background(), QueryInput{}); !apperr.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestManagerWarmRefetchesSharedScope(t *testing.T) {
	backend := &fakeBackend{places: makePlaces(7)}
	m := newTestManager(backend, newTestClock(), nil)

	for i := 0; i < 2; i++ {
		n, err := m.Warm(context.Background(), "", "")
		if err != nil || n != 7 {
			t.Fatalf("warm: %d %v", n, err)
		}
	}
	if backend.calls() != 2 {
		t.Fatalf("expected warm to bypass the cache, got %d calls", backend.calls())
	}

	if _, err := m.Query(context.Background(), QueryInput{Filters: domain.DefaultFilters()}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if backend.calls() != 2 {
		t.Fatalf("expected query to hit the warmed cache")
	}
}
