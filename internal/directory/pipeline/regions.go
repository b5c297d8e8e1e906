package pipeline

import (
	"sort"
	"strings"

	"storefront_backend/internal/directory/domain"
)

// Regions derives the region/city pairs present in a fetched collection,
// sorted by name with duplicates folded case-insensitively.
func Regions(places []domain.Place) []domain.RegionCities {
	type bucket struct {
		name   string
		cities map[string]string
	}
	byKey := make(map[string]*bucket)

	for _, p := range places {
		region := p.RegionName()
		if region == "" {
			continue
		}
		k := strings.ToLower(region)
		b, ok := byKey[k]
		if !ok {
			b = &bucket{name: region, cities: make(map[string]string)}
			byKey[k] = b
		}
		if city := p.CityName(); city != "" {
			if _, seen := b.cities[strings.ToLower(city)]; !seen {
				b.cities[strings.ToLower(city)] = city
			}
		}
	}

	out := make([]domain.RegionCities, 0, len(byKey))
	for _, b := range byKey {
		cities := make([]string, 0, len(b.cities))
		for _, c := range b.cities {
			cities = append(cities, c)
		}
		sortFold(cities)
		out = append(out, domain.RegionCities{Region: b.name, Cities: cities})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Region) < strings.ToLower(out[j].Region)
	})
	return out
}

// CitiesFor returns the city options for region. For "all" it returns the
// union of every region's cities.
func CitiesFor(regions []domain.RegionCities, region string) []string {
	seen := make(map[string]string)
	for _, rc := range regions {
		if !domain.IsAll(region) && !strings.EqualFold(rc.Region, region) {
			continue
		}
		for _, c := range rc.Cities {
			if _, ok := seen[strings.ToLower(c)]; !ok {
				seen[strings.ToLower(c)] = c
			}
		}
	}
	cities := make([]string, 0, len(seen))
	for _, c := range seen {
		cities = append(cities, c)
	}
	sortFold(cities)
	return cities
}

func sortFold(values []string) {
	sort.Slice(values, func(i, j int) bool {
		return strings.ToLower(values[i]) < strings.ToLower(values[j])
	})
}
