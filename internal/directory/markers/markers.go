// Package markers projects filtered vendors onto map markers.
package markers

import (
	"storefront_backend/internal/directory/domain"
)

// Marker is the reduced vendor shape the map widget renders.
type Marker struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Slug       string  `json:"slug"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	CategoryID int     `json:"categoryId"`
	Icon       string  `json:"icon,omitempty"`
	Rating     float64 `json:"rating"`
	Selected   bool    `json:"selected"`
}

// Project keeps vendors with valid coordinates and annotates each with its
// category icon. selectedID is the shared selection also read by the list.
func Project(vendors []domain.Vendor, icons *IconResolver, selectedID string) []Marker {
	out := make([]Marker, 0, len(vendors))
	for _, v := range vendors {
		coord, ok := domain.ParseCoordinate(v.Latitude, v.Longitude)
		if !ok {
			continue
		}
		m := Marker{
			ID:         v.ID,
			Name:       v.Name,
			Slug:       v.Slug,
			Latitude:   coord.Latitude,
			Longitude:  coord.Longitude,
			CategoryID: v.CategoryID,
			Rating:     v.Rating,
			Selected:   selectedID != "" && v.ID == selectedID,
		}
		if icons != nil {
			m.Icon = icons.Resolve(v)
		}
		out = append(out, m)
	}
	return out
}
