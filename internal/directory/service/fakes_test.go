package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"storefront_backend/internal/directory/cache"
	"storefront_backend/internal/directory/domain"
	"storefront_backend/internal/directory/location"
	"storefront_backend/internal/directory/markers"
	"storefront_backend/internal/directory/normalize"
	"storefront_backend/internal/directory/pipeline"
	"storefront_backend/internal/directory/repository"
	"storefront_backend/platform/apperr"
	"storefront_backend/platform/logger"
)

// fakeBackend is a content backend that records calls.
type fakeBackend struct {
	mu          sync.Mutex
	places      []domain.Place
	categories  []domain.Category
	regions     []domain.RegionCities
	placesErr   error
	placeCalls  int
	categoryErr error
	catCalls    int
	queries     []repository.PlaceQuery
	block       chan struct{}
	blockedOnce bool
}

func (b *fakeBackend) ListPlaces(ctx context.Context, q repository.PlaceQuery) ([]domain.Place, error) {
	b.mu.Lock()
	b.placeCalls++
	b.queries = append(b.queries, q)
	block := b.block
	if b.blockedOnce {
		b.block = nil
	}
	places, err := b.places, b.placesErr
	b.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return places, nil
}

func (b *fakeBackend) ListCategories(context.Context) ([]domain.Category, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.catCalls++
	if b.categoryErr != nil {
		return nil, b.categoryErr
	}
	return b.categories, nil
}

func (b *fakeBackend) setCategoryErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.categoryErr = err
}

func (b *fakeBackend) categoryCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.catCalls
}

func (b *fakeBackend) ListRegions(context.Context) ([]domain.RegionCities, error) {
	if b.regions == nil {
		return nil, apperr.NotFound("regions endpoint not available")
	}
	return b.regions, nil
}

func (b *fakeBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.placeCalls
}

func (b *fakeBackend) fetched(search string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, q := range b.queries {
		if q.Search == search {
			return true
		}
	}
	return false
}

func (b *fakeBackend) setPlaces(places []domain.Place, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.places = places
	b.placesErr = err
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeGeocoder struct {
	match *location.Match
	err   error
}

func (g fakeGeocoder) Geocode(context.Context, string) (*location.Match, error) {
	return g.match, g.err
}

// switchGeocoder is a geocoder whose answer can change between calls.
type switchGeocoder struct {
	mu    sync.Mutex
	match *location.Match
	err   error
}

func (g *switchGeocoder) Geocode(context.Context, string) (*location.Match, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.match, g.err
}

func (g *switchGeocoder) set(match *location.Match, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.match = match
	g.err = err
}

func makePlaces(n int) []domain.Place {
	places := make([]domain.Place, 0, n)
	for i := 1; i <= n; i++ {
		region := "North"
		if i <= 5 {
			region = "South"
		}
		places = append(places, domain.Place{
			ID:         domain.FlexString(fmt.Sprint(i)),
			Title:      domain.RichText{Kind: domain.TextPlain, Value: fmt.Sprintf("Vendor %02d", i)},
			Region:     region,
			City:       "Town",
			Latitude:   domain.FlexString(fmt.Sprintf("%.3f", 40+float64(i)/100)),
			Longitude:  "-75.000",
			Categories: domain.CategoryRef{Kind: domain.CategoryObject, Items: []domain.CategoryValue{{ID: 1, Name: "Bakery"}}},
			Rating:     domain.FlexFloat{Value: float64(i % 6), Valid: true},
		})
	}
	return places
}

func newTestDeps(backend *fakeBackend, geocoder location.Geocoder) *Deps {
	log := logger.Discard()
	n := normalize.New(normalize.Options{})
	return &Deps{
		Fetcher:    NewFetcher(backend, log),
		Taxonomy:   NewTaxonomy(backend, markers.IconTable{}, time.Minute, log),
		Pipeline:   pipeline.New(n),
		Normalizer: n,
		Places:     backend,
		Geocoder:   geocoder,
		Debounce:   10 * time.Millisecond,
		Log:        log,
	}
}

func newTestManager(backend *fakeBackend, clock *testClock, geocoder location.Geocoder) *Manager {
	return NewManager(newTestDeps(backend, geocoder), cache.NewMemoryStore(), cache.DefaultTTL, 30*time.Minute, WithManagerClock(clock.Now))
}

func waitIdle(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		loading := s.loading
		s.mu.Unlock()
		if !s.debouncer.Pending() && !loading {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session did not settle")
}
