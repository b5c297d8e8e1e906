package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront_backend/internal/directory/cache"
	"storefront_backend/internal/directory/domain"
	"storefront_backend/internal/directory/location"
	"storefront_backend/internal/directory/normalize"
	"storefront_backend/internal/directory/pipeline"
	"storefront_backend/platform/apperr"
	"storefront_backend/platform/logger"
)

// Deps are the collaborators shared by every session.
type Deps struct {
	Fetcher    *Fetcher
	Taxonomy   *Taxonomy
	Pipeline   *pipeline.Pipeline
	Normalizer *normalize.Normalizer
	Places     PlaceSource
	Geocoder   location.Geocoder
	Debounce   time.Duration
	Log        *logger.Logger
}

// FilterPatch changes a subset of the filters; nil fields are left alone.
type FilterPatch struct {
	Search    *string
	Category  *string
	Region    *string
	City      *string
	MinRating *float64
	OpenNow   *bool
	Verified  *bool
	Featured  *bool
}

func (p FilterPatch) apply(f domain.Filters) domain.Filters {
	if p.Search != nil {
		f.Search = *p.Search
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.Region != nil {
		f.Region = *p.Region
	}
	if p.City != nil {
		f.City = *p.City
	}
	if p.MinRating != nil {
		f.MinRating = *p.MinRating
	}
	if p.OpenNow != nil {
		f.OpenNow = *p.OpenNow
	}
	if p.Verified != nil {
		f.Verified = *p.Verified
	}
	if p.Featured != nil {
		f.Featured = *p.Featured
	}
	return f
}

// Session is one visitor's directory state. Its mutex guards the state only;
// fetches, geocoding and taxonomy calls run without it held.
type Session struct {
	id        string
	deps      *Deps
	cache     *cache.ResultCache
	location  *location.Resolver
	suggester *Suggester
	debouncer *Debouncer
	ctx       context.Context
	cancel    context.CancelFunc
	now       func() time.Time
	log       *logger.Logger

	mu           sync.Mutex
	filters      domain.Filters
	sort         domain.SortKey
	explicitSort bool
	page         int
	places       []domain.Place
	fromCache    bool
	loading      bool
	panel        *ErrorPanel
	generation   uint64
	lastActive   time.Time
}

func newSession(id string, deps *Deps, rc *cache.ResultCache, now func() time.Time) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:         id,
		deps:       deps,
		cache:      rc,
		location:   location.NewResolver(deps.Geocoder),
		suggester:  NewSuggester(deps.Places, deps.Normalizer),
		ctx:        ctx,
		cancel:     cancel,
		now:        now,
		log:        deps.Log.WithSessionID(id),
		filters:    domain.DefaultFilters(),
		sort:       domain.DefaultSort,
		page:       1,
		lastActive: now(),
	}
	s.debouncer = NewDebouncer(deps.Debounce, func() {
		if err := s.Refresh(s.ctx); err != nil && !apperr.Is(err, apperr.KindCanceled) {
			s.log.Warn("debounced fetch failed", "error", err)
		}
	})
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// LastActive returns when the session was last used.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Refresh fetches immediately, dropping any pending debounced fetch. Only the
// latest fetch may apply its result. A failed fetch clears the list and sets
// the error panel.
func (s *Session) Refresh(ctx context.Context) error {
	// Cancel before the snapshot: a filter change after this point schedules
	// its own fetch.
	s.debouncer.Cancel()
	s.deps.Taxonomy.RetryCategories()

	s.mu.Lock()
	s.generation++
	gen := s.generation
	filters := s.filters
	s.loading = true
	s.lastActive = s.now()
	s.mu.Unlock()

	res, err := s.deps.Fetcher.Fetch(ctx, s.cache, filters)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil
	}
	s.loading = false
	if err != nil {
		if apperr.Is(err, apperr.KindCanceled) {
			return err
		}
		s.places = nil
		s.fromCache = false
		s.panel = panelFor(err)
		return err
	}

	s.places = res.Places
	s.fromCache = res.FromCache
	s.panel = nil
	s.page = pipeline.ClampPage(s.page, pipeline.TotalPages(pipeline.Count(s.places, s.filters)))
	return nil
}

// UpdateFilters applies patch. A region change resets the city to "all"
// unless the patch sets a city too. Any change resets the page to 1. Changes
// to search, category, region or city restart the debounced fetch.
func (s *Session) UpdateFilters(patch FilterPatch) bool {
	s.mu.Lock()
	before := s.filters
	next := patch.apply(before).Normalized()
	next.PinnedID = before.PinnedID
	if !strings.EqualFold(next.Region, before.Region) && patch.City == nil {
		next.City = domain.All
	}
	s.lastActive = s.now()
	if next == before {
		s.mu.Unlock()
		return false
	}

	s.filters = next
	s.page = 1
	refetch := next.Search != before.Search ||
		next.Category != before.Category ||
		next.Region != before.Region ||
		next.City != before.City
	s.mu.Unlock()

	if refetch {
		s.debouncer.Trigger()
	}
	return true
}

// SetPage moves to page n. Requests outside [1, totalPages] are ignored.
func (s *Session) SetPage(n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	total := pipeline.TotalPages(pipeline.Count(s.places, s.filters))
	if n < 1 || n > total {
		return false
	}
	s.page = n
	return true
}

// SetSort sets the ordering chosen by the user.
func (s *Session) SetSort(key domain.SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	s.sort = key
	s.explicitSort = true
}

// Select pins the list to one vendor, as a map-marker click does.
func (s *Session) Select(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.Validation("vendor id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	s.filters.PinnedID = id
	return nil
}

// ClearSelection removes the pin.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	s.filters.PinnedID = ""
}

// ResolveDevice applies a device geolocation report.
func (s *Session) ResolveDevice(report location.DeviceReport) (location.Snapshot, error) {
	had := s.location.Coordinate() != nil
	snap, err := s.location.ResolveDevice(report)
	if err != nil {
		return snap, err
	}
	s.applyLocation(snap, had)
	return snap, nil
}

// ResolveManual geocodes a zip code or city name.
func (s *Session) ResolveManual(ctx context.Context, query string) (location.Snapshot, error) {
	had := s.location.Coordinate() != nil
	snap, err := s.location.ResolveManual(ctx, query)
	if err != nil {
		return snap, err
	}
	s.applyLocation(snap, had)
	return snap, nil
}

// ClearLocation forgets the location and leaves distance sorting.
func (s *Session) ClearLocation() {
	s.location.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	s.leaveDistanceSortLocked()
}

// applyLocation switches to distance sorting on success unless the user chose
// a sort, and leaves it when a failed attempt dropped the previous location.
// A failed lookup that kept the location changes nothing.
func (s *Session) applyLocation(snap location.Snapshot, hadLocation bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	switch {
	case snap.Failure != nil:
		if hadLocation && snap.Location == nil {
			s.leaveDistanceSortLocked()
		}
	case snap.State == location.StateResolved:
		if !s.explicitSort {
			s.sort = domain.SortDistance
		}
	}
}

func (s *Session) leaveDistanceSortLocked() {
	if s.sort == domain.SortDistance {
		s.sort = domain.DefaultSort
		s.explicitSort = false
	}
}

// Suggest returns search suggestions within the current category.
func (s *Session) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	s.mu.Lock()
	category := s.filters.Category
	s.lastActive = s.now()
	s.mu.Unlock()
	return s.suggester.Suggest(ctx, query, category)
}

// View renders the current state. Categories and regions load concurrently.
// A category fetch that fails in transport or upstream clears the list behind
// the same retryable panel as a failed place fetch.
func (s *Session) View(ctx context.Context) View {
	s.mu.Lock()
	filters := s.filters
	sortKey := s.sort
	explicit := s.explicitSort
	page := s.page
	places := s.places
	panel := s.panel
	loading := s.loading
	fromCache := s.fromCache
	s.lastActive = s.now()
	s.mu.Unlock()

	loc := s.location.Snapshot()
	var origin *domain.Coordinate
	if loc.State == location.StateResolved && loc.Location != nil {
		c := loc.Location.Coordinate
		origin = &c
	}

	categories, regions, catErr := s.deps.loadTaxonomy(ctx, places)
	catPanel, catNote := categoryFailure(catErr)
	if panel == nil {
		panel = catPanel
	}

	v := s.deps.render(renderInput{
		places:      places,
		filters:     filters,
		sort:        sortKey,
		page:        page,
		origin:      origin,
		categories:  categories,
		regions:     regions,
		fetchFailed: panel,
	})
	v.SessionID = s.id
	v.SortExplicit = explicit
	v.Location = loc
	v.Loading = loading || s.debouncer.Pending()
	v.FromCache = fromCache
	v.CategoryError = catNote
	return v
}

// close stops timers and lookups owned by the session.
func (s *Session) close() {
	s.debouncer.Stop()
	s.suggester.Stop()
	s.cancel()
}

func (d *Deps) loadTaxonomy(ctx context.Context, places []domain.Place) ([]domain.Category, []domain.RegionCities, error) {
	var categories []domain.Category
	var regions []domain.RegionCities

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = d.Taxonomy.Categories(gctx)
		return err
	})
	g.Go(func() error {
		regions = d.Taxonomy.Regions(gctx, places)
		return nil
	})
	err := g.Wait()
	return categories, regions, err
}
