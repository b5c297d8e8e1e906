// Package cache holds the most recent fetched place collection together with
// the filter key it was fetched for. An entry is served only while it is
// younger than the TTL and its key matches the requested one exactly.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"storefront_backend/internal/directory/domain"
	"storefront_backend/platform/logger"
)

// DefaultTTL is the lifetime of a cached collection.
const DefaultTTL = 10 * time.Minute

// ErrMiss is returned by a Store when the slot is empty.
var ErrMiss = errors.New("cache: miss")

// Key identifies the server-side filters a collection was fetched with.
type Key struct {
	Search   string `json:"search"`
	Category string `json:"category"`
	Region   string `json:"region"`
	City     string `json:"city"`
}

// Entry is the persisted form of a cached collection.
type Entry struct {
	Places   []domain.Place `json:"places"`
	Key      Key            `json:"key"`
	StoredAt time.Time      `json:"storedAt"`
}

// Store persists a single serialized entry under a name.
type Store interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, name string) error
}

// ResultCache is a single-slot cache scoped to one session or to the shared scope.
// All failures degrade to a miss and are logged, never returned.
type ResultCache struct {
	store Store
	name  string
	ttl   time.Duration
	now   func() time.Time
	log   *logger.Logger
}

// Option configures a ResultCache.
type Option func(*ResultCache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *ResultCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *ResultCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// SlotName returns the storage name for a scope.
func SlotName(scope string) string {
	return "directory:results:" + scope
}

// New creates a ResultCache for scope backed by store.
func New(store Store, scope string, log *logger.Logger, opts ...Option) *ResultCache {
	c := &ResultCache{
		store: store,
		name:  SlotName(scope),
		ttl:   DefaultTTL,
		now:   time.Now,
		log:   log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached places if the entry is fresh and was stored for key.
// A stale or mismatching entry is removed.
func (c *ResultCache) Get(ctx context.Context, key Key) ([]domain.Place, bool) {
	payload, err := c.store.Load(ctx, c.name)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.log.CacheDegraded("load", err)
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		c.log.CacheDegraded("decode", err)
		c.drop(ctx)
		return nil, false
	}

	if c.now().Sub(entry.StoredAt) >= c.ttl || entry.Key != key {
		c.drop(ctx)
		return nil, false
	}

	if entry.Places == nil {
		entry.Places = []domain.Place{}
	}
	return entry.Places, true
}

// Put replaces the slot with places fetched for key.
func (c *ResultCache) Put(ctx context.Context, key Key, places []domain.Place) {
	payload, err := json.Marshal(Entry{Places: places, Key: key, StoredAt: c.now()})
	if err != nil {
		c.log.CacheDegraded("encode", err)
		c.drop(ctx)
		return
	}
	if err := c.store.Save(ctx, c.name, payload, c.ttl); err != nil {
		c.log.CacheDegraded("save", err)
		c.drop(ctx)
	}
}

// Clear empties the slot.
func (c *ResultCache) Clear(ctx context.Context) {
	c.drop(ctx)
}

func (c *ResultCache) drop(ctx context.Context) {
	if err := c.store.Delete(ctx, c.name); err != nil && !errors.Is(err, ErrMiss) {
		c.log.CacheDegraded("delete", err)
	}
}
