package service

import (
	"context"
	"testing"
	"time"

	"storefront_backend/internal/directory/normalize"
	"storefront_backend/platform/apperr"
)

func TestSuggestCancelsPreviousLookup(t *testing.T) {
	backend := &fakeBackend{places: makePlaces(20), block: make(chan struct{}), blockedOnce: true}
	s := NewSuggester(backend, normalize.New(normalize.Options{}))

	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Suggest(context.Background(), "ven", "")
		firstErr <- err
	}()

	deadline := time.Now().Add(time.Second)
	for backend.calls() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("first lookup never started")
		}
		time.Sleep(time.Millisecond)
	}

	second, err := s.Suggest(context.Background(), "vendor", "")
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if len(second) != suggestLimit {
		t.Fatalf("expected %d suggestions, got %d", suggestLimit, len(second))
	}

	select {
	case err := <-firstErr:
		if !apperr.Is(err, apperr.KindCanceled) {
			t.Fatalf("expected superseded lookup to be canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("first lookup was not canceled")
	}
}

func TestSuggestShortQueryReturnsNothing(t *testing.T) {
	backend := &fakeBackend{places: makePlaces(3)}
	s := NewSuggester(backend, normalize.New(normalize.Options{}))

	got, err := s.Suggest(context.Background(), " v ", "")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no suggestions, got %v %v", got, err)
	}
	if backend.calls() != 0 {
		t.Fatalf("expected no lookup for a one-letter query")
	}
}

func TestSuggestPassesLimitAndCategory(t *testing.T) {
	backend := &fakeBackend{places: makePlaces(3)}
	s := NewSuggester(backend, normalize.New(normalize.Options{}))

	got, err := s.Suggest(context.Background(), "bread", "bakery")
	if err != nil || len(got) != 3 {
		t.Fatalf("unexpected result %v %v", got, err)
	}
	q := backend.queries[0]
	if q.Limit != suggestLimit || q.Category != "bakery" || q.Search != "bread" {
		t.Fatalf("unexpected query %+v", q)
	}
	if got[0].Slug != "vendor-01" {
		t.Fatalf("unexpected slug %q", got[0].Slug)
	}
}
