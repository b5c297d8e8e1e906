// Package domain holds the directory's canonical types: raw places as the
// content backend serves them, normalized vendors, categories, filters and
// locations.
package domain

// Vendor is the normalized shape every downstream stage works with.
type Vendor struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Slug       string      `json:"slug"`
	LogoURL    string      `json:"logoUrl"`
	BannerURL  string      `json:"bannerUrl"`
	Tagline    string      `json:"tagline"`
	Bio        string      `json:"bio"`
	Specialty  string      `json:"specialty"`
	CategoryID int         `json:"categoryId"`
	Rating     float64     `json:"rating"`
	Location   string      `json:"location"`
	City       string      `json:"city,omitempty"`
	Region     string      `json:"region,omitempty"`
	PostalCode string      `json:"postalCode,omitempty"`
	Latitude   string      `json:"latitude,omitempty"`
	Longitude  string      `json:"longitude,omitempty"`
	Distance   *float64    `json:"distance,omitempty"`
	Phone      string      `json:"phone,omitempty"`
	Email      string      `json:"email,omitempty"`
	Website    string      `json:"website,omitempty"`
	Verified   bool        `json:"verified"`
	Featured   bool        `json:"featured"`
	Social     SocialLinks `json:"social"`
	Policies   Policies    `json:"policies"`
}

// HasDistance reports whether a distance to the user was computed.
func (v Vendor) HasDistance() bool {
	return v.Distance != nil
}

// Category is an entry of the category taxonomy.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Icon string `json:"icon,omitempty"`
}

// RegionCities pairs a region with the cities known inside it.
type RegionCities struct {
	Region string   `json:"region"`
	Cities []string `json:"cities"`
}
