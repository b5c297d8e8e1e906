package service

import (
	"context"
	"sync"
	"time"

	"storefront_backend/internal/directory/domain"
	"storefront_backend/internal/directory/fallback"
	"storefront_backend/internal/directory/markers"
	"storefront_backend/internal/directory/pipeline"
	"storefront_backend/platform/logger"
)

// TaxonomySource lists categories and regions from the content backend.
type TaxonomySource interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListRegions(ctx context.Context) ([]domain.RegionCities, error)
}

type memo[T any] struct {
	value     T
	err       error
	fetchedAt time.Time
	ok        bool
}

// categoryFailureTTL bounds how long a failed category fetch is served from
// the memo.
const categoryFailureTTL = 30 * time.Second

// Taxonomy memoises the category list and the region endpoint for ttl.
// Failures are memoised too so an absent endpoint is not retried per view;
// category failures only for categoryFailureTTL or until RetryCategories.
type Taxonomy struct {
	source TaxonomySource
	icons  markers.IconTable
	ttl    time.Duration
	now    func() time.Time
	log    *logger.Logger

	mu         sync.Mutex
	categories memo[[]domain.Category]
	regions    memo[[]domain.RegionCities]
}

func NewTaxonomy(source TaxonomySource, icons markers.IconTable, ttl time.Duration, log *logger.Logger) *Taxonomy {
	return &Taxonomy{source: source, icons: icons, ttl: ttl, now: time.Now, log: log}
}

// Categories returns the category taxonomy with icons from the icon table
// filled in where the backend provides none.
func (t *Taxonomy) Categories(ctx context.Context) ([]domain.Category, error) {
	t.mu.Lock()
	ttl := t.ttl
	if t.categories.err != nil && categoryFailureTTL < ttl {
		ttl = categoryFailureTTL
	}
	if t.categories.ok && t.now().Sub(t.categories.fetchedAt) < ttl {
		value, err := t.categories.value, t.categories.err
		t.mu.Unlock()
		return value, err
	}
	t.mu.Unlock()

	categories, err := t.source.ListCategories(ctx)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	if err != nil {
		t.log.UpstreamError("content_api.categories", err)
		categories = nil
	} else {
		categories = t.icons.Annotate(categories)
	}

	t.mu.Lock()
	t.categories = memo[[]domain.Category]{value: categories, err: err, fetchedAt: t.now(), ok: true}
	t.mu.Unlock()
	return categories, err
}

// RetryCategories forgets a memoised category failure so the next call asks
// the backend again. A memoised success is kept.
func (t *Taxonomy) RetryCategories() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.categories.err != nil {
		t.categories = memo[[]domain.Category]{}
	}
}

// IconResolver builds a marker icon resolver over categories.
func (t *Taxonomy) IconResolver(categories []domain.Category) *markers.IconResolver {
	return markers.NewIconResolver(categories, t.icons)
}

// Regions resolves region/city pairs: the region endpoint first, then the
// pairs present in places.
func (t *Taxonomy) Regions(ctx context.Context, places []domain.Place) []domain.RegionCities {
	chain := fallback.Chain[[]domain.RegionCities]{
		{Name: "endpoint", Resolve: t.regionsFromEndpoint},
		{Name: "derived", Resolve: func(context.Context) ([]domain.RegionCities, bool, error) {
			return pipeline.Regions(places), true, nil
		}},
	}
	res, err := chain.Resolve(ctx)
	if err != nil {
		return pipeline.Regions(places)
	}
	return res.Value
}

func (t *Taxonomy) regionsFromEndpoint(ctx context.Context) ([]domain.RegionCities, bool, error) {
	t.mu.Lock()
	if t.fresh(t.regions.ok, t.regions.fetchedAt) {
		value, err := t.regions.value, t.regions.err
		t.mu.Unlock()
		return value, len(value) > 0, err
	}
	t.mu.Unlock()

	regions, err := t.source.ListRegions(ctx)
	if err != nil && ctx.Err() != nil {
		return nil, false, err
	}
	if err != nil {
		t.log.Debug("region endpoint unavailable, deriving from places", "error", err)
		regions = nil
	}

	t.mu.Lock()
	t.regions = memo[[]domain.RegionCities]{value: regions, err: err, fetchedAt: t.now(), ok: true}
	t.mu.Unlock()
	return regions, len(regions) > 0, err
}

func (t *Taxonomy) fresh(ok bool, fetchedAt time.Time) bool {
	return ok && t.now().Sub(fetchedAt) < t.ttl
}
