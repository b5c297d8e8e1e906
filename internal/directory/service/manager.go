package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront_backend/internal/directory/cache"
	"storefront_backend/internal/directory/domain"
	"storefront_backend/platform/apperr"
	"storefront_backend/platform/logger"
)

// SharedScope is the cache scope of stateless queries and warm-ups.
const SharedScope = "shared"

// Manager owns the live sessions and the shared cache scope.
type Manager struct {
	deps     *Deps
	store    cache.Store
	cacheTTL time.Duration
	idleTTL  time.Duration
	now      func() time.Time
	log      *logger.Logger
	shared   *cache.ResultCache

	mu       sync.RWMutex
	sessions map[string]*Session
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerClock overrides the time source of the manager, its sessions and their caches.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(deps *Deps, store cache.Store, cacheTTL, idleTTL time.Duration, opts ...ManagerOption) *Manager {
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}
	m := &Manager{
		deps:     deps,
		store:    store,
		cacheTTL: cacheTTL,
		idleTTL:  idleTTL,
		now:      time.Now,
		log:      deps.Log,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.shared = m.newCache(SharedScope)
	return m
}

func (m *Manager) newCache(scope string) *cache.ResultCache {
	return cache.New(m.store, scope, m.log, cache.WithTTL(m.cacheTTL), cache.WithClock(m.now))
}

// Create starts a session with optional initial filters and runs its first fetch.
// A failed first fetch is reported through the session's error panel.
func (m *Manager) Create(ctx context.Context, initial *domain.Filters) *Session {
	id := uuid.NewString()
	s := newSession(id, m.deps, m.newCache("session:"+id), m.now)
	if initial != nil {
		s.filters = initial.Normalized()
		s.filters.PinnedID = ""
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	if err := s.Refresh(ctx); err != nil {
		s.log.Warn("initial fetch failed", "error", err)
	}
	m.log.Info("directory session created", "session_id", id)
	return s
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("directory session not found")
	}
	return s, nil
}

// End closes a session and drops its cache slot.
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return apperr.NotFound("directory session not found")
	}
	s.close()
	s.cache.Clear(ctx)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep ends sessions idle for longer than the idle TTL and returns how many.
func (m *Manager) Sweep(ctx context.Context) int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	expired := make([]*Session, 0)
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.close()
		s.cache.Clear(ctx)
	}
	if len(expired) > 0 {
		m.log.Info("swept idle directory sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	interval := m.idleTTL / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Close ends every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}

// QueryInput is a one-off pipeline request without a session.
type QueryInput struct {
	Filters domain.Filters
	Sort    domain.SortKey
	Page    int
	Origin  *domain.Coordinate
}

// Query runs the pipeline over the shared cache scope. Unlike sessions, a
// failed place or category fetch is returned as an error.
func (m *Manager) Query(ctx context.Context, in QueryInput) (View, error) {
	filters := in.Filters.Normalized()
	res, err := m.deps.Fetcher.Fetch(ctx, m.shared, filters)
	if err != nil {
		return View{}, err
	}

	sortKey := in.Sort
	if sortKey == "" {
		sortKey = domain.DefaultSort
		if in.Origin != nil {
			sortKey = domain.SortDistance
		}
	}

	categories, regions, catErr := m.deps.loadTaxonomy(ctx, res.Places)
	catPanel, catNote := categoryFailure(catErr)
	if catPanel != nil {
		return View{}, catErr
	}
	v := m.deps.render(renderInput{
		places:     res.Places,
		filters:    filters,
		sort:       sortKey,
		page:       in.Page,
		origin:     in.Origin,
		categories: categories,
		regions:    regions,
	})
	v.FromCache = res.FromCache
	v.CategoryError = catNote
	return v, nil
}

// Categories returns the category taxonomy.
func (m *Manager) Categories(ctx context.Context) ([]domain.Category, error) {
	return m.deps.Taxonomy.Categories(ctx)
}

// Warm refetches the shared scope for search and category and returns the
// number of places cached.
func (m *Manager) Warm(ctx context.Context, search, category string) (int, error) {
	filters := domain.DefaultFilters()
	filters.Search = search
	filters.Category = category
	res, err := m.deps.Fetcher.Reload(ctx, m.shared, filters)
	if err != nil {
		return 0, err
	}
	return len(res.Places), nil
}
