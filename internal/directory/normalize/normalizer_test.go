package normalize

import (
	"encoding/json"
	"math"
	"testing"

	"storefront_backend/internal/directory/domain"
	"storefront_backend/internal/directory/geo"
	"storefront_backend/platform/slug"
)

func newTestNormalizer() *Normalizer {
	return New(Options{
		PlaceholderLogoURL:   "/logo.png",
		PlaceholderBannerURL: "/banner.jpg",
	})
}

func decodePlace(t *testing.T, raw string) domain.Place {
	t.Helper()
	var p domain.Place
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("decode place: %v", err)
	}
	return p
}

func TestNormalizeEmptyPlaceUsesDefaults(t *testing.T) {
	v := newTestNormalizer().Normalize(domain.Place{}, nil)

	if v.Name != defaultName {
		t.Fatalf("expected default name, got %q", v.Name)
	}
	if v.Slug == "" || !slug.Valid(v.Slug) {
		t.Fatalf("expected non-empty URL-safe slug, got %q", v.Slug)
	}
	if v.LogoURL != "/logo.png" || v.BannerURL != "/banner.jpg" {
		t.Fatalf("expected placeholders, got %q / %q", v.LogoURL, v.BannerURL)
	}
	if v.Specialty != defaultSpecialty {
		t.Fatalf("expected default specialty, got %q", v.Specialty)
	}
	if v.Rating != 0 || math.IsNaN(v.Rating) {
		t.Fatalf("expected zero rating, got %v", v.Rating)
	}
	if v.Distance != nil {
		t.Fatalf("expected no distance without coordinates")
	}
}

func TestNormalizeHeterogeneousShapes(t *testing.T) {
	p := decodePlace(t, `{
		"id": 42,
		"title": {"rendered": "Café &amp; Crème"},
		"content": "<p>Fresh <b>pastries</b></p><script>alert(1)</script>",
		"categories": [{"id": 7, "name": "Bakery"}, "Coffee"],
		"city": "Utrecht",
		"state": "UT",
		"latitude": "52.09",
		"longitude": 5.12,
		"rating": "4.6",
		"claimed": "1",
		"phone": "(201) 555-0123"
	}`)

	v := newTestNormalizer().Normalize(p, nil)

	if v.ID != "42" {
		t.Fatalf("expected id 42, got %q", v.ID)
	}
	if v.Name != "Café & Crème" {
		t.Fatalf("unexpected name %q", v.Name)
	}
	if v.Slug != "cafe-creme" {
		t.Fatalf("unexpected slug %q", v.Slug)
	}
	if v.Bio != "Fresh pastries" {
		t.Fatalf("unexpected bio %q", v.Bio)
	}
	if v.Specialty != "Bakery, Coffee" {
		t.Fatalf("unexpected specialty %q", v.Specialty)
	}
	if v.CategoryID != 7 {
		t.Fatalf("expected category id 7, got %d", v.CategoryID)
	}
	if v.Location != "Utrecht, UT" {
		t.Fatalf("unexpected location %q", v.Location)
	}
	if v.Rating != 4.6 {
		t.Fatalf("unexpected rating %v", v.Rating)
	}
	if !v.Verified {
		t.Fatalf("expected claimed place to be verified")
	}
	if v.Latitude != "52.09" || v.Longitude != "5.12" {
		t.Fatalf("unexpected coordinates %q,%q", v.Latitude, v.Longitude)
	}
	if v.Phone != "+12015550123" {
		t.Fatalf("unexpected phone %q", v.Phone)
	}
}

func TestNormalizeDistanceRequiresBothCoordinates(t *testing.T) {
	n := newTestNormalizer()
	origin := &domain.Coordinate{Latitude: 52.0, Longitude: 5.0}

	withCoords := domain.Place{ID: "1", Latitude: "52.1", Longitude: "5.1"}
	withoutCoords := domain.Place{ID: "2"}
	badCoords := domain.Place{ID: "3", Latitude: "abc", Longitude: "5.1"}

	if v := n.Normalize(withCoords, origin); v.Distance == nil {
		t.Fatalf("expected distance when both sides have coordinates")
	}
	if v := n.Normalize(withCoords, nil); v.Distance != nil {
		t.Fatalf("expected no distance without user location")
	}
	if v := n.Normalize(withoutCoords, origin); v.Distance != nil {
		t.Fatalf("expected no distance without vendor coordinates")
	}
	if v := n.Normalize(badCoords, origin); v.Distance != nil || v.Latitude != "" {
		t.Fatalf("expected malformed coordinates to be dropped")
	}
}

func TestNormalizeRatingIsClampedAndFinite(t *testing.T) {
	n := newTestNormalizer()
	cases := []struct {
		raw  string
		want float64
	}{
		{`{"rating": 7}`, 5},
		{`{"rating": -2}`, 0},
		{`{"rating": "n/a"}`, 0},
		{`{"rating": {"value": 3}}`, 0},
		{`{"rating": 3.5}`, 3.5},
	}
	for _, tc := range cases {
		v := n.Normalize(decodePlace(t, tc.raw), nil)
		if v.Rating != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.raw, tc.want, v.Rating)
		}
	}
}

func TestNormalizeSlugFallbacks(t *testing.T) {
	n := newTestNormalizer()

	if v := n.Normalize(domain.Place{Slug: "given-slug", Title: domain.RichText{Kind: domain.TextPlain, Value: "X"}}, nil); v.Slug != "given-slug" {
		t.Fatalf("expected raw slug kept, got %q", v.Slug)
	}
	if v := n.Normalize(domain.Place{ID: "99", Title: domain.RichText{Kind: domain.TextPlain, Value: "!!!"}}, nil); v.Slug != "vendor-99" {
		t.Fatalf("expected id-based slug, got %q", v.Slug)
	}
}

func TestNormalizeTaglineTruncated(t *testing.T) {
	long := ""
	for i := 0; i < 40; i++ {
		long += "word "
	}
	v := newTestNormalizer().Normalize(domain.Place{Content: domain.RichText{Kind: domain.TextPlain, Value: long}}, nil)
	if len([]rune(v.Tagline)) > taglineLength+3 {
		t.Fatalf("tagline too long: %d runes", len([]rune(v.Tagline)))
	}
	if v.Bio == v.Tagline {
		t.Fatalf("expected tagline to be shortened from bio")
	}
}

func TestNormalizeMilesUnit(t *testing.T) {
	n := New(Options{Unit: geo.Miles})
	origin := &domain.Coordinate{Latitude: 52.0, Longitude: 5.0}
	km := New(Options{}).Normalize(domain.Place{Latitude: "52.5", Longitude: "5.0"}, origin)
	mi := n.Normalize(domain.Place{Latitude: "52.5", Longitude: "5.0"}, origin)
	if *mi.Distance >= *km.Distance {
		t.Fatalf("expected miles value below kilometers value")
	}
}
