package domain

import (
	"math"
	"strconv"
	"strings"
)

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both components are finite and within range.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) || math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// ParseCoordinate parses numeric latitude/longitude strings.
func ParseCoordinate(lat, lon string) (Coordinate, bool) {
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if lat == "" || lon == "" {
		return Coordinate{}, false
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return Coordinate{}, false
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return Coordinate{}, false
	}
	c := Coordinate{Latitude: la, Longitude: lo}
	if !c.Valid() {
		return Coordinate{}, false
	}
	return c, true
}

// LocationSource records how a location was obtained.
type LocationSource string

const (
	SourceDevice LocationSource = "device"
	SourceManual LocationSource = "manual"
)

// Location is a resolved user position.
type Location struct {
	Coordinate
	Source LocationSource `json:"source"`
	Label  string         `json:"label,omitempty"`
}
