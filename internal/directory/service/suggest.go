package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"storefront_backend/internal/directory/normalize"
	"storefront_backend/internal/directory/repository"
	"storefront_backend/platform/apperr"
)

const (
	minSuggestLength = 2
	suggestLimit     = 8
)

// Suggestion is a vendor proposed while the user types a search.
type Suggestion struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Suggester looks up search suggestions. Starting a lookup cancels the
// previous one, so a slow older answer can never replace a newer one.
type Suggester struct {
	source     PlaceSource
	normalizer *normalize.Normalizer

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

func NewSuggester(source PlaceSource, normalizer *normalize.Normalizer) *Suggester {
	return &Suggester{source: source, normalizer: normalizer}
}

// Suggest returns up to suggestLimit vendors matching query. A lookup that
// was superseded returns a KindCanceled error.
func (s *Suggester) Suggest(ctx context.Context, query, category string) ([]Suggestion, error) {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	seq := s.seq
	if utf8.RuneCountInString(query) < minSuggestLength {
		s.mu.Unlock()
		return []Suggestion{}, nil
	}
	lookupCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	places, err := s.source.ListPlaces(lookupCtx, repository.PlaceQuery{Search: query, Category: category, Limit: suggestLimit})

	s.mu.Lock()
	superseded := seq != s.seq
	if !superseded {
		s.cancel = nil
	}
	s.mu.Unlock()

	if superseded || errors.Is(lookupCtx.Err(), context.Canceled) {
		return nil, apperr.Canceled("suggestion lookup superseded").WithOp("service.Suggest")
	}
	if err != nil {
		return nil, err
	}

	out := make([]Suggestion, 0, len(places))
	for _, p := range places {
		if len(out) == suggestLimit {
			break
		}
		v := s.normalizer.Normalize(p, nil)
		out = append(out, Suggestion{ID: v.ID, Name: v.Name, Slug: v.Slug})
	}
	return out, nil
}

// Stop cancels a lookup in flight.
func (s *Suggester) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
