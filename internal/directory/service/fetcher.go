// Package service implements the directory's stateful engine: place fetching
// through the result cache, the category and region taxonomy, and per-visitor
// sessions that combine filters, location, selection and paging into a view.
package service

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"

	"storefront_backend/internal/directory/cache"
	"storefront_backend/internal/directory/domain"
	"storefront_backend/internal/directory/repository"
	"storefront_backend/platform/apperr"
	"storefront_backend/platform/logger"
)

// PlaceSource lists places from the content backend.
type PlaceSource interface {
	ListPlaces(ctx context.Context, q repository.PlaceQuery) ([]domain.Place, error)
}

// FetchResult is a fetched collection and where it came from.
type FetchResult struct {
	Places    []domain.Place
	FromCache bool
}

// Fetcher retrieves the full collection for the server-side filters. Region
// and city are never sent to the backend and never part of the fetch key, so a
// cached collection serves every region/city combination of the same search.
type Fetcher struct {
	source PlaceSource
	group  singleflight.Group
	log    *logger.Logger
}

func NewFetcher(source PlaceSource, log *logger.Logger) *Fetcher {
	return &Fetcher{source: source, log: log}
}

// KeyFor returns the cache key a fetch for filters uses.
func KeyFor(filters domain.Filters) cache.Key {
	f := filters.Normalized()
	category := f.Category
	if domain.IsAll(category) {
		category = ""
	}
	return cache.Key{Search: f.Search, Category: category}
}

// Fetch returns the cached collection when it is valid for filters, otherwise
// fetches it and stores it in rc. A failed fetch leaves rc untouched.
func (f *Fetcher) Fetch(ctx context.Context, rc *cache.ResultCache, filters domain.Filters) (FetchResult, error) {
	key := KeyFor(filters)
	if places, ok := rc.Get(ctx, key); ok {
		return FetchResult{Places: places, FromCache: true}, nil
	}
	return f.load(ctx, rc, key)
}

// Reload fetches unconditionally and replaces the cached collection.
func (f *Fetcher) Reload(ctx context.Context, rc *cache.ResultCache, filters domain.Filters) (FetchResult, error) {
	return f.load(ctx, rc, KeyFor(filters))
}

func (f *Fetcher) load(ctx context.Context, rc *cache.ResultCache, key cache.Key) (FetchResult, error) {
	// Identical concurrent fetches share one upstream call. The shared call
	// must not die with whichever caller happened to start it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := f.group.Do(flightKey(key), func() (interface{}, error) {
		return f.source.ListPlaces(shared, repository.PlaceQuery{Search: key.Search, Category: key.Category})
	})
	if err != nil {
		if !apperr.Is(err, apperr.KindCanceled) {
			f.log.UpstreamError("content_api", err)
		}
		return FetchResult{}, err
	}
	// The result is cached even when this caller has given up on it.
	places := v.([]domain.Place)
	rc.Put(shared, key, places)
	if err := ctx.Err(); err != nil {
		return FetchResult{}, apperr.Canceled("fetch abandoned")
	}
	return FetchResult{Places: places}, nil
}

func flightKey(key cache.Key) string {
	return strings.Join([]string{key.Search, key.Category}, "\x00")
}
