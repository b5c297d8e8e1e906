package domain

import "strings"

// All is the wildcard value for region and city selections.
const All = "all"

// SortKey is the ordering applied to the displayed vendors.
type SortKey string

const (
	SortFeatured SortKey = "featured"
	SortRating   SortKey = "rating"
	SortName     SortKey = "name"
	SortDistance SortKey = "distance"
)

// DefaultSort is the ordering used until the user or a location picks another.
const DefaultSort = SortFeatured

// ParseSortKey maps user input to a SortKey.
func ParseSortKey(s string) (SortKey, bool) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortFeatured:
		return SortFeatured, true
	case SortRating:
		return SortRating, true
	case SortName:
		return SortName, true
	case SortDistance:
		return SortDistance, true
	}
	return "", false
}

// Filters is the full set of simultaneously active predicates.
// PinnedID is the single shared selection produced by a map-marker click;
// when set it overrides every other predicate.
type Filters struct {
	Search    string  `json:"search"`
	Category  string  `json:"category"`
	Region    string  `json:"region"`
	City      string  `json:"city"`
	MinRating float64 `json:"minRating"`
	OpenNow   bool    `json:"openNow"`
	Verified  bool    `json:"verified"`
	Featured  bool    `json:"featured"`
	PinnedID  string  `json:"pinnedId,omitempty"`
}

// DefaultFilters returns the unfiltered state.
func DefaultFilters() Filters {
	return Filters{Region: All, City: All}
}

// Normalized trims text fields and maps empty region/city to All.
func (f Filters) Normalized() Filters {
	f.Search = strings.TrimSpace(f.Search)
	f.Category = strings.TrimSpace(f.Category)
	f.Region = normalizeSelection(f.Region)
	f.City = normalizeSelection(f.City)
	f.PinnedID = strings.TrimSpace(f.PinnedID)
	if f.MinRating < 0 {
		f.MinRating = 0
	}
	return f
}

// IsAll reports whether a region/city selection is the wildcard.
func IsAll(value string) bool {
	return value == "" || strings.EqualFold(value, All)
}

func normalizeSelection(value string) string {
	value = strings.TrimSpace(value)
	if IsAll(value) {
		return All
	}
	return value
}
