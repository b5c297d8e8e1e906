package maps

// GeocodeRequest represents the query parameters from the frontend.
type GeocodeRequest struct {
	Query string `form:"q" validate:"required,notblank,max=200"`
}

// GeocodeResult is the best match for a free-text location query.
type GeocodeResult struct {
	Label     string  `json:"label"`
	City      string  `json:"city,omitempty"`
	ZipCode   string  `json:"zipCode,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeocodeResponse wraps the optional match so "no match" is an explicit null.
type GeocodeResponse struct {
	Match *GeocodeResult `json:"match"`
}

type nominatimAddress struct {
	Postcode     string `json:"postcode"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	Hamlet       string `json:"hamlet"`
	State        string `json:"state"`
}

// nominatimResponse mirrors the relevant parts of the OSM search payload.
type nominatimResponse struct {
	DisplayName string           `json:"display_name"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Address     nominatimAddress `json:"address"`
}
