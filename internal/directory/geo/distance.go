// Package geo computes great-circle distances between coordinates and
// renders them for display.
package geo

import (
	"fmt"
	"math"

	"storefront_backend/internal/directory/domain"
)

// Unit is a display unit for distances.
type Unit string

const (
	Kilometers Unit = "km"
	Miles      Unit = "mi"
)

// Mean Earth radius (IUGG).
const (
	earthRadiusKm = 6371.0088
	kmPerMile     = 1.609344
)

// ParseUnit maps a config value to a Unit, defaulting to kilometers.
func ParseUnit(s string) Unit {
	if Unit(s) == Miles {
		return Miles
	}
	return Kilometers
}

// Distance returns the haversine distance between a and b in unit.
// It is symmetric and zero for identical points.
func Distance(a, b domain.Coordinate, unit Unit) float64 {
	if a == b {
		return 0
	}

	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := lat2 - lat1
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h marginally outside [0, 1] for near-antipodal points.
	h = math.Min(1, math.Max(0, h))
	km := 2 * earthRadiusKm * math.Asin(math.Sqrt(h))

	if unit == Miles {
		return km / kmPerMile
	}
	return km
}

// Format renders d as a short string: below 0.1 as "< 0.1", below 10 with
// one decimal, otherwise rounded to a whole number.
func Format(d float64, unit Unit) string {
	switch {
	case math.IsNaN(d) || d < 0:
		return ""
	case d < 0.1:
		return fmt.Sprintf("< 0.1 %s", unit)
	case d < 10:
		// Values that would round up to 10.0 are shown as 10 to stay monotonic.
		if math.Round(d*10)/10 >= 10 {
			return fmt.Sprintf("10 %s", unit)
		}
		return fmt.Sprintf("%.1f %s", d, unit)
	default:
		return fmt.Sprintf("%.0f %s", math.Round(d), unit)
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
