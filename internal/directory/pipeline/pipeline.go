// Package pipeline narrows, pages, normalizes and orders a fetched place
// collection into the vendors shown to the user.
package pipeline

import (
	"sort"
	"strings"

	"storefront_backend/internal/directory/domain"
	"storefront_backend/internal/directory/normalize"
)

// PageSize is the number of vendors per page.
const PageSize = 12

// Input is everything a single pipeline run depends on.
type Input struct {
	Places  []domain.Place
	Filters domain.Filters
	Sort    domain.SortKey
	Page    int
	Origin  *domain.Coordinate
}

// Result is the outcome of a pipeline run.
type Result struct {
	// Vendors is the displayed page after attribute filters, pin override and sort.
	Vendors []domain.Vendor
	// MapVendors is every vendor matching the filters across all pages, without the pin override.
	MapVendors    []domain.Vendor
	Page          int
	TotalPages    int
	TotalFiltered int
	Pinned        bool
}

// Pipeline runs the filter/sort/paginate steps.
type Pipeline struct {
	normalizer *normalize.Normalizer
}

// New creates a Pipeline.
func New(normalizer *normalize.Normalizer) *Pipeline {
	return &Pipeline{normalizer: normalizer}
}

// Run applies region, city, pagination, normalization, attribute filters and
// sorting in that order. Every step runs even when an earlier one leaves nothing.
func (p *Pipeline) Run(in Input) Result {
	filters := in.Filters.Normalized()

	narrowed := filterByRegion(in.Places, filters.Region)
	narrowed = filterByCity(narrowed, filters.City)

	total := len(narrowed)
	totalPages := TotalPages(total)
	page := ClampPage(in.Page, totalPages)
	slice := paginate(narrowed, page)

	displayed := p.normalizer.NormalizeAll(slice, in.Origin)
	displayed = filterAttributes(displayed, filters)

	pinned := filters.PinnedID != ""
	if pinned {
		displayed = p.pin(in.Places, filters.PinnedID, in.Origin)
	}

	sortVendors(displayed, in.Sort)

	mapVendors := filterAttributes(p.normalizer.NormalizeAll(narrowed, in.Origin), filters)

	return Result{
		Vendors:       displayed,
		MapVendors:    mapVendors,
		Page:          page,
		TotalPages:    totalPages,
		TotalFiltered: total,
		Pinned:        pinned,
	}
}

// Count returns how many places survive the region and city filters.
func Count(places []domain.Place, filters domain.Filters) int {
	filters = filters.Normalized()
	return len(filterByCity(filterByRegion(places, filters.Region), filters.City))
}

// TotalPages returns max(1, ceil(total/PageSize)).
func TotalPages(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + PageSize - 1) / PageSize
}

// ClampPage keeps page within [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// pin returns exactly the vendor with id from the whole fetched collection,
// or nothing when it is not part of it.
func (p *Pipeline) pin(places []domain.Place, id string, origin *domain.Coordinate) []domain.Vendor {
	for _, place := range places {
		if place.ID.String() == id {
			return []domain.Vendor{p.normalizer.Normalize(place, origin)}
		}
	}
	return []domain.Vendor{}
}

func filterByRegion(places []domain.Place, region string) []domain.Place {
	if domain.IsAll(region) {
		return places
	}
	out := make([]domain.Place, 0, len(places))
	for _, p := range places {
		if strings.EqualFold(p.RegionName(), region) {
			out = append(out, p)
		}
	}
	return out
}

func filterByCity(places []domain.Place, city string) []domain.Place {
	if domain.IsAll(city) {
		return places
	}
	out := make([]domain.Place, 0, len(places))
	for _, p := range places {
		if strings.EqualFold(p.CityName(), city) {
			out = append(out, p)
		}
	}
	return out
}

func paginate(places []domain.Place, page int) []domain.Place {
	start := (page - 1) * PageSize
	if start >= len(places) {
		return nil
	}
	end := start + PageSize
	if end > len(places) {
		end = len(places)
	}
	return places[start:end]
}

// filterAttributes applies the predicates the content backend cannot:
// minimum rating (inclusive) and the verified/featured toggles.
// OpenNow has no hours data to act on and keeps every vendor.
func filterAttributes(vendors []domain.Vendor, f domain.Filters) []domain.Vendor {
	out := make([]domain.Vendor, 0, len(vendors))
	for _, v := range vendors {
		if v.Rating < f.MinRating {
			continue
		}
		if f.Verified && !v.Verified {
			continue
		}
		if f.Featured && !v.Featured {
			continue
		}
		out = append(out, v)
	}
	return out
}

func sortVendors(vendors []domain.Vendor, key domain.SortKey) {
	switch key {
	case domain.SortRating:
		sort.SliceStable(vendors, func(i, j int) bool {
			return vendors[i].Rating > vendors[j].Rating
		})
	case domain.SortName:
		sort.SliceStable(vendors, func(i, j int) bool {
			return strings.ToLower(vendors[i].Name) < strings.ToLower(vendors[j].Name)
		})
	case domain.SortDistance:
		sort.SliceStable(vendors, func(i, j int) bool {
			a, b := vendors[i].Distance, vendors[j].Distance
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return *a < *b
			}
		})
	}
}
