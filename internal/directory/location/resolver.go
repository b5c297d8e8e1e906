// Package location resolves the user's position, first from the device and
// then from a manually entered zip code or city.
package location

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"storefront_backend/internal/directory/domain"
	"storefront_backend/platform/apperr"
)

// State is the resolver lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateResolving State = "resolving"
	StateResolved  State = "resolved"
	StateFailed    State = "failed"
)

// FailureCode classifies why a resolution attempt failed.
type FailureCode string

const (
	PermissionDenied    FailureCode = "permission_denied"
	PositionUnavailable FailureCode = "position_unavailable"
	Timeout             FailureCode = "timeout"
	PolicyBlocked       FailureCode = "policy_blocked"
	GeocodeNoMatch      FailureCode = "geocode_no_match"
	GeocodeUnavailable  FailureCode = "geocode_unavailable"
)

var failureMessages = map[FailureCode]string{
	PermissionDenied:    "Location access was denied. Enter a zip code or city instead.",
	PositionUnavailable: "Your location could not be determined. Enter a zip code or city instead.",
	Timeout:             "Finding your location took too long. Enter a zip code or city instead.",
	PolicyBlocked:       "Location access is not allowed on this page. Enter a zip code or city instead.",
	GeocodeNoMatch:      "We couldn't find that place. Check the zip code or city and try again.",
	GeocodeUnavailable:  "Location lookup is unavailable right now. Please try again.",
}

// ParseDeviceCode maps a browser geolocation error to a FailureCode.
// Unknown codes are treated as an unavailable position.
func ParseDeviceCode(code string) FailureCode {
	switch FailureCode(strings.ToLower(strings.TrimSpace(code))) {
	case PermissionDenied:
		return PermissionDenied
	case Timeout:
		return Timeout
	case PolicyBlocked:
		return PolicyBlocked
	default:
		return PositionUnavailable
	}
}

// Failure describes a failed attempt. Device failures always offer the
// manual fallback; geocoding failures are shown next to the manual field.
type Failure struct {
	Code           FailureCode `json:"code"`
	Message        string      `json:"message"`
	ManualFallback bool        `json:"manualFallback"`
}

func newFailure(code FailureCode) *Failure {
	return &Failure{Code: code, Message: failureMessages[code], ManualFallback: true}
}

// Snapshot is a point-in-time copy of the resolver.
type Snapshot struct {
	State    State            `json:"state"`
	Location *domain.Location `json:"location,omitempty"`
	Failure  *Failure         `json:"failure,omitempty"`
}

// DeviceReport is what the browser geolocation API produced: either a
// position or an error code.
type DeviceReport struct {
	Latitude  *float64
	Longitude *float64
	ErrorCode string
}

// Match is a geocoding hit.
type Match struct {
	Coordinate domain.Coordinate
	Label      string
}

// Geocoder looks up free text. A nil match with a nil error means no match.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Match, error)
}

// Resolver owns the single location value of a session. Only one attempt
// may be in flight at a time.
type Resolver struct {
	mu       sync.Mutex
	geocoder Geocoder
	state    State
	location *domain.Location
	failure  *Failure
	attempt  uint64
}

// NewResolver creates an idle Resolver.
func NewResolver(geocoder Geocoder) *Resolver {
	return &Resolver{geocoder: geocoder, state: StateIdle}
}

// Snapshot returns the current state.
func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Coordinate returns the resolved coordinate, if any.
func (r *Resolver) Coordinate() *domain.Coordinate {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.location == nil {
		return nil
	}
	c := r.location.Coordinate
	return &c
}

// ResolveDevice applies a device geolocation report.
func (r *Resolver) ResolveDevice(report DeviceReport) (Snapshot, error) {
	attempt, err := r.begin()
	if err != nil {
		return Snapshot{}, err
	}

	if report.ErrorCode != "" {
		return r.fail(attempt, newFailure(ParseDeviceCode(report.ErrorCode))), nil
	}
	if report.Latitude == nil || report.Longitude == nil {
		return r.fail(attempt, newFailure(PositionUnavailable)), nil
	}
	coord := domain.Coordinate{Latitude: *report.Latitude, Longitude: *report.Longitude}
	if !coord.Valid() {
		return r.fail(attempt, newFailure(PositionUnavailable)), nil
	}
	return r.succeed(attempt, domain.Location{Coordinate: coord, Source: domain.SourceDevice}), nil
}

// ResolveManual geocodes query and accepts the first match. The geocoder is
// called without holding the lock. A failed lookup is reported next to the
// manual field and keeps any location already resolved.
func (r *Resolver) ResolveManual(ctx context.Context, query string) (Snapshot, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Snapshot{}, apperr.Validation("enter a zip code or city")
	}
	if r.geocoder == nil {
		return Snapshot{}, apperr.Internal("manual location lookup is not configured")
	}

	attempt, err := r.begin()
	if err != nil {
		return Snapshot{}, err
	}

	match, err := r.geocoder.Geocode(ctx, query)
	switch {
	case err != nil:
		return r.failLookup(attempt, newFailure(GeocodeUnavailable)), nil
	case match == nil || !match.Coordinate.Valid():
		f := newFailure(GeocodeNoMatch)
		f.Message = fmt.Sprintf("No location found for %q. Check the zip code or city and try again.", query)
		return r.failLookup(attempt, f), nil
	}

	label := strings.TrimSpace(match.Label)
	if label == "" {
		label = query
	}
	return r.succeed(attempt, domain.Location{Coordinate: match.Coordinate, Source: domain.SourceManual, Label: label}), nil
}

// Clear resets the resolver to idle and abandons any attempt in flight.
// It reports whether a location was present.
func (r *Resolver) Clear() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	had := r.location != nil
	r.attempt++
	r.state = StateIdle
	r.location = nil
	r.failure = nil
	return had
}

func (r *Resolver) begin() (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateResolving {
		return 0, apperr.Conflict("a location lookup is already in progress")
	}
	r.attempt++
	r.state = StateResolving
	r.failure = nil
	return r.attempt, nil
}

func (r *Resolver) succeed(attempt uint64, loc domain.Location) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if attempt == r.attempt {
		r.state = StateResolved
		r.location = &loc
		r.failure = nil
	}
	return r.snapshotLocked()
}

// fail drops any previous location; a failed device attempt supersedes it.
func (r *Resolver) fail(attempt uint64, f *Failure) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if attempt == r.attempt {
		r.state = StateFailed
		r.location = nil
		r.failure = f
	}
	return r.snapshotLocked()
}

// failLookup records a geocoding failure. A resolved location stays in
// effect, so the state only becomes failed when there is none.
func (r *Resolver) failLookup(attempt uint64, f *Failure) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if attempt == r.attempt {
		r.state = StateFailed
		if r.location != nil {
			r.state = StateResolved
		}
		r.failure = f
	}
	return r.snapshotLocked()
}

func (r *Resolver) snapshotLocked() Snapshot {
	s := Snapshot{State: r.state}
	if r.location != nil {
		loc := *r.location
		s.Location = &loc
	}
	if r.failure != nil {
		f := *r.failure
		s.Failure = &f
	}
	return s
}
