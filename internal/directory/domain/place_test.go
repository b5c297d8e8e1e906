package domain

import (
	"encoding/json"
	"testing"
)

func TestPlaceDecodingNeverFailsOnFieldShape(t *testing.T) {
	raw := `{
		"id": "abc",
		"title": ["not", "text"],
		"categories": 12,
		"latitude": true,
		"rating": {"avg": 4},
		"featured": "yes",
		"social": "nope"
	}`

	var p Place
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("expected tolerant decoding, got %v", err)
	}
	if p.ID.String() != "abc" {
		t.Fatalf("expected id to survive, got %q", p.ID)
	}
	if p.Title.Kind != TextAbsent {
		t.Fatalf("expected absent title, got %v", p.Title.Kind)
	}
	if p.Categories.Kind != CategoryObject {
		t.Fatalf("expected numeric category to decode as a single reference, got %v", p.Categories.Kind)
	}
	if id, ok := p.Categories.FirstID(); !ok || id != 12 {
		t.Fatalf("expected category id 12, got %d", id)
	}
	if p.Latitude != "" {
		t.Fatalf("expected boolean latitude to be dropped")
	}
	if p.Rating.Valid {
		t.Fatalf("expected object rating to be invalid")
	}
	if !p.Featured {
		t.Fatalf("expected featured to accept yes")
	}
}

func TestCategoryRefShapes(t *testing.T) {
	cases := []struct {
		raw   string
		kind  CategoryKind
		names []string
	}{
		{`"Bakery"`, CategoryName, []string{"Bakery"}},
		{`{"id": 3, "name": "Florist"}`, CategoryObject, []string{"Florist"}},
		{`[{"name": "A"}, "B", 9]`, CategoryList, []string{"A", "B"}},
		{`[]`, CategoryAbsent, nil},
		{`null`, CategoryAbsent, nil},
	}
	for _, tc := range cases {
		var ref CategoryRef
		if err := json.Unmarshal([]byte(tc.raw), &ref); err != nil {
			t.Fatalf("%s: unexpected error %v", tc.raw, err)
		}
		if ref.Kind != tc.kind {
			t.Fatalf("%s: expected kind %v, got %v", tc.raw, tc.kind, ref.Kind)
		}
		names := ref.Names()
		if len(names) != len(tc.names) {
			t.Fatalf("%s: expected names %v, got %v", tc.raw, tc.names, names)
		}
		for i := range names {
			if names[i] != tc.names[i] {
				t.Fatalf("%s: expected names %v, got %v", tc.raw, tc.names, names)
			}
		}
	}
}

func TestPlaceRoundTripKeepsUnions(t *testing.T) {
	in := Place{
		ID:         "7",
		Title:      RichText{Kind: TextRendered, Value: "Shop"},
		Categories: CategoryRef{Kind: CategoryList, Items: []CategoryValue{{ID: 2, Name: "Gifts"}}},
		Rating:     FlexFloat{Value: 4.5, Valid: true},
		Verified:   true,
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Place
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Title.Plain() != "Shop" || out.Rating.Value != 4.5 || !bool(out.Verified) {
		t.Fatalf("round trip lost data: %+v", out)
	}
	if id, _ := out.Categories.FirstID(); id != 2 {
		t.Fatalf("expected category id 2, got %d", id)
	}
}

func TestFiltersNormalized(t *testing.T) {
	f := Filters{Search: "  coffee ", Region: "", City: "ALL", MinRating: -1}.Normalized()
	if f.Search != "coffee" || f.Region != All || f.City != All || f.MinRating != 0 {
		t.Fatalf("unexpected normalized filters %+v", f)
	}
}
