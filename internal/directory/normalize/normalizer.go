// Package normalize converts raw content-backend places into canonical vendors.
// Normalization never fails: every missing or malformed field is replaced by a default.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"storefront_backend/internal/directory/domain"
	"storefront_backend/internal/directory/geo"
	"storefront_backend/platform/phone"
	"storefront_backend/platform/sanitize"
	"storefront_backend/platform/slug"
)

const (
	defaultName      = "Unnamed Vendor"
	defaultSpecialty = "Local Vendor"
	taglineLength    = 100
	maxRating        = 5
)

// Options configures placeholders and formatting.
type Options struct {
	PlaceholderLogoURL   string
	PlaceholderBannerURL string
	Unit                 geo.Unit
	Phone                *phone.Normalizer
}

// Normalizer maps domain.Place to domain.Vendor.
type Normalizer struct {
	opts Options
}

// New creates a Normalizer. A nil phone normalizer defaults to the US region.
func New(opts Options) *Normalizer {
	if opts.Phone == nil {
		opts.Phone = phone.NewNormalizer("")
	}
	if opts.Unit == "" {
		opts.Unit = geo.Kilometers
	}
	return &Normalizer{opts: opts}
}

// Unit returns the distance unit vendors are annotated with.
func (n *Normalizer) Unit() geo.Unit {
	return n.opts.Unit
}

// Normalize builds a Vendor from p. When origin is non-nil and the place has
// valid coordinates, the vendor's distance to origin is set.
func (n *Normalizer) Normalize(p domain.Place, origin *domain.Coordinate) domain.Vendor {
	id := p.ID.String()
	name := sanitize.StripHTML(p.Title.Plain())
	if name == "" {
		name = defaultName
	}

	bio := sanitize.StripHTML(p.Content.Plain())
	if bio == "" {
		bio = sanitize.StripHTML(p.Description)
	}
	tagline := sanitize.StripHTML(p.Excerpt.Plain())
	if tagline == "" {
		tagline = bio
	}

	v := domain.Vendor{
		ID:         id,
		Name:       name,
		Slug:       vendorSlug(p.Slug, name, id),
		LogoURL:    firstNonEmpty(p.Logo, n.opts.PlaceholderLogoURL),
		BannerURL:  firstNonEmpty(p.Banner, p.Image, n.opts.PlaceholderBannerURL),
		Tagline:    sanitize.Truncate(tagline, taglineLength),
		Bio:        bio,
		Specialty:  specialty(p.Categories),
		CategoryID: categoryID(p),
		Rating:     rating(p.Rating),
		Location:   locationLabel(p),
		City:       p.CityName(),
		Region:     p.RegionName(),
		PostalCode: p.Postal(),
		Phone:      n.opts.Phone.E164(p.Phone),
		Email:      strings.TrimSpace(p.Email),
		Website:    firstNonEmpty(p.Website, p.Social.Website),
		Verified:   bool(p.Verified) || bool(p.Claimed),
		Featured:   bool(p.Featured),
		Social:     p.Social,
		Policies: domain.Policies{
			Shipping: sanitize.StripHTML(p.Policies.Shipping),
			Returns:  sanitize.StripHTML(p.Policies.Returns),
			Pickup:   sanitize.StripHTML(p.Policies.Pickup),
		},
	}

	coord, ok := domain.ParseCoordinate(p.Latitude.String(), p.Longitude.String())
	if ok {
		v.Latitude = p.Latitude.String()
		v.Longitude = p.Longitude.String()
		if origin != nil && origin.Valid() {
			d := geo.Distance(*origin, coord, n.opts.Unit)
			v.Distance = &d
		}
	}

	return v
}

// NormalizeAll normalizes every place in order.
func (n *Normalizer) NormalizeAll(places []domain.Place, origin *domain.Coordinate) []domain.Vendor {
	out := make([]domain.Vendor, 0, len(places))
	for _, p := range places {
		out = append(out, n.Normalize(p, origin))
	}
	return out
}

func vendorSlug(raw, name, id string) string {
	if s := strings.TrimSpace(raw); s != "" && slug.Valid(s) {
		return s
	}
	if s := slug.Make(raw); s != "" {
		return s
	}
	if name != defaultName {
		if s := slug.Make(name); s != "" {
			return s
		}
	}
	if s := slug.Make(id); s != "" {
		return "vendor-" + s
	}
	return "vendor"
}

func specialty(ref domain.CategoryRef) string {
	names := ref.Names()
	if len(names) == 0 {
		return defaultSpecialty
	}
	for i, name := range names {
		names[i] = sanitize.StripHTML(name)
	}
	return strings.Join(names, ", ")
}

func categoryID(p domain.Place) int {
	if id, ok := p.Categories.FirstID(); ok {
		return id
	}
	if id, err := strconv.Atoi(p.CategoryID.String()); err == nil && id > 0 {
		return id
	}
	return 0
}

func rating(r domain.FlexFloat) float64 {
	if !r.Valid || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return 0
	}
	return math.Min(maxRating, math.Max(0, r.Value))
}

func locationLabel(p domain.Place) string {
	city, region := p.CityName(), p.RegionName()
	switch {
	case city != "" && region != "":
		return city + ", " + region
	case city != "":
		return city
	case region != "":
		return region
	default:
		return p.Postal()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
