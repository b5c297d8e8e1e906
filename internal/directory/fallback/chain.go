// Package fallback evaluates an ordered list of resolution strategies until one
// produces a value. It backs every "ask the endpoint, else derive it locally"
// lookup in the directory.
package fallback

import (
	"context"
	"errors"
)

// ErrUnresolved is returned when no strategy produced a value.
var ErrUnresolved = errors.New("fallback: no strategy resolved")

// Strategy tries to produce a value. ok=false without an error means the
// strategy does not apply and the next one should be tried.
type Strategy[T any] struct {
	Name    string
	Resolve func(ctx context.Context) (value T, ok bool, err error)
}

// Chain is an ordered list of strategies.
type Chain[T any] []Strategy[T]

// Result reports which strategy produced the value and what failed before it.
type Result[T any] struct {
	Value    T
	Source   string
	Failures map[string]error
}

// Resolve runs the strategies in order and returns the first value produced.
// A failing strategy does not stop the chain; its error is kept in Failures.
func (c Chain[T]) Resolve(ctx context.Context) (Result[T], error) {
	res := Result[T]{}
	for _, s := range c {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		v, ok, err := s.Resolve(ctx)
		if err != nil {
			if res.Failures == nil {
				res.Failures = make(map[string]error)
			}
			res.Failures[s.Name] = err
			continue
		}
		if ok {
			res.Value = v
			res.Source = s.Name
			return res, nil
		}
	}
	return res, ErrUnresolved
}

// First resolves synchronously for strategies that never block or fail.
func First[T any](candidates ...func() (T, bool)) (T, bool) {
	for _, candidate := range candidates {
		if v, ok := candidate(); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
