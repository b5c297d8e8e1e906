package geo

import (
	"math"
	"math/rand"
	"testing"

	"storefront_backend/internal/directory/domain"
)

func TestDistanceSymmetricAndZero(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a := domain.Coordinate{Latitude: rng.Float64()*180 - 90, Longitude: rng.Float64()*360 - 180}
		b := domain.Coordinate{Latitude: rng.Float64()*180 - 90, Longitude: rng.Float64()*360 - 180}

		if d := Distance(a, a, Kilometers); d != 0 {
			t.Fatalf("expected zero distance for identical points, got %f", d)
		}
		ab := Distance(a, b, Kilometers)
		ba := Distance(b, a, Kilometers)
		if math.Abs(ab-ba) > 1e-9 {
			t.Fatalf("distance not symmetric: %f vs %f", ab, ba)
		}
		if ab < 0 || ab > math.Pi*earthRadiusKm+1e-6 {
			t.Fatalf("distance out of range: %f", ab)
		}
	}
}

func TestDistanceKnownPair(t *testing.T) {
	// Amsterdam Centraal to Rotterdam Centraal is roughly 57 km.
	amsterdam := domain.Coordinate{Latitude: 52.3791, Longitude: 4.9003}
	rotterdam := domain.Coordinate{Latitude: 51.9244, Longitude: 4.4695}

	km := Distance(amsterdam, rotterdam, Kilometers)
	if km < 56 || km > 59 {
		t.Fatalf("expected about 57 km, got %f", km)
	}

	mi := Distance(amsterdam, rotterdam, Miles)
	if math.Abs(mi*kmPerMile-km) > 1e-9 {
		t.Fatalf("miles conversion mismatch: %f mi vs %f km", mi, km)
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "< 0.1 km"},
		{0.05, "< 0.1 km"},
		{0.1, "0.1 km"},
		{2.345, "2.3 km"},
		{9.96, "10 km"},
		{10, "10 km"},
		{12.6, "13 km"},
	}
	for _, tc := range cases {
		if got := Format(tc.in, Kilometers); got != tc.want {
			t.Fatalf("Format(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if got := Format(-1, Kilometers); got != "" {
		t.Fatalf("expected empty string for negative distance, got %q", got)
	}
}

func TestParseUnit(t *testing.T) {
	if ParseUnit("mi") != Miles {
		t.Fatalf("expected miles")
	}
	if ParseUnit("furlongs") != Kilometers {
		t.Fatalf("expected kilometers fallback")
	}
}
