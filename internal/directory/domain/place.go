package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Place is a raw business record as served by the content backend.
// Any field may be absent or carry one of several shapes; decoding never
// fails on a field, it only leaves the zero value behind.
type Place struct {
	ID          FlexString  `json:"id"`
	Slug        string      `json:"slug,omitempty"`
	Title       RichText    `json:"title"`
	Content     RichText    `json:"content"`
	Excerpt     RichText    `json:"excerpt"`
	Categories  CategoryRef `json:"categories"`
	CategoryID  FlexString  `json:"category_id"`
	Street      string      `json:"street,omitempty"`
	Address     string      `json:"address,omitempty"`
	City        string      `json:"city,omitempty"`
	Region      string      `json:"region,omitempty"`
	State       string      `json:"state,omitempty"`
	PostalCode  string      `json:"postal_code,omitempty"`
	Zip         string      `json:"zip,omitempty"`
	Latitude    FlexString  `json:"latitude"`
	Longitude   FlexString  `json:"longitude"`
	Phone       string      `json:"phone,omitempty"`
	Email       string      `json:"email,omitempty"`
	Website     string      `json:"website,omitempty"`
	Logo        string      `json:"logo,omitempty"`
	Banner      string      `json:"banner,omitempty"`
	Image       string      `json:"featured_image,omitempty"`
	Claimed     FlexBool    `json:"claimed"`
	Verified    FlexBool    `json:"verified"`
	Featured    FlexBool    `json:"featured"`
	Rating      FlexFloat   `json:"rating"`
	Social      SocialLinks `json:"social"`
	Policies    Policies    `json:"policies"`
	Description string      `json:"description,omitempty"`
}

// UnmarshalJSON decodes best-effort: a field of an unexpected type is left
// at its zero value instead of failing the whole record.
func (p *Place) UnmarshalJSON(data []byte) error {
	type plain Place
	var out plain
	err := json.Unmarshal(data, &out)
	var typeErr *json.UnmarshalTypeError
	if err != nil && !errors.As(err, &typeErr) {
		return err
	}
	*p = Place(out)
	return nil
}

// RegionName returns the region of the place, accepting either field name.
func (p Place) RegionName() string {
	if r := strings.TrimSpace(p.Region); r != "" {
		return r
	}
	return strings.TrimSpace(p.State)
}

// CityName returns the trimmed city of the place.
func (p Place) CityName() string {
	return strings.TrimSpace(p.City)
}

// Postal returns the postal code, accepting either field name.
func (p Place) Postal() string {
	if z := strings.TrimSpace(p.PostalCode); z != "" {
		return z
	}
	return strings.TrimSpace(p.Zip)
}

// SocialLinks holds optional vendor social profiles.
type SocialLinks struct {
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
	Website   string `json:"website,omitempty"`
}

// Policies holds optional vendor policy text blocks.
type Policies struct {
	Shipping string `json:"shipping,omitempty"`
	Returns  string `json:"returns,omitempty"`
	Pickup   string `json:"pickup,omitempty"`
}

// =============================================================================
// Tagged unions
// =============================================================================

// TextKind tags the shape a rich-text field arrived in.
type TextKind int

const (
	TextAbsent TextKind = iota
	TextPlain
	TextRendered
)

// RichText is a title/body field that is either a plain string or a
// {"rendered": "..."} wrapper object.
type RichText struct {
	Kind  TextKind
	Value string
}

// Plain returns the text regardless of the shape it came in.
func (t RichText) Plain() string {
	if t.Kind == TextAbsent {
		return ""
	}
	return t.Value
}

// UnmarshalJSON accepts a string, a {"rendered"|"raw"} object or anything else (absent).
func (t *RichText) UnmarshalJSON(data []byte) error {
	*t = RichText{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if json.Unmarshal(data, &s) == nil {
			*t = RichText{Kind: TextPlain, Value: s}
		}
	case '{':
		var wrapper struct {
			Rendered *string `json:"rendered"`
			Raw      *string `json:"raw"`
		}
		if json.Unmarshal(data, &wrapper) != nil {
			return nil
		}
		switch {
		case wrapper.Rendered != nil:
			*t = RichText{Kind: TextRendered, Value: *wrapper.Rendered}
		case wrapper.Raw != nil:
			*t = RichText{Kind: TextRendered, Value: *wrapper.Raw}
		}
	}
	return nil
}

// MarshalJSON writes the canonical wrapper form so cached records round-trip.
func (t RichText) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case TextPlain:
		return json.Marshal(t.Value)
	case TextRendered:
		return json.Marshal(map[string]string{"rendered": t.Value})
	default:
		return []byte("null"), nil
	}
}

// CategoryKind tags the shape a category reference arrived in.
type CategoryKind int

const (
	CategoryAbsent CategoryKind = iota
	CategoryName
	CategoryObject
	CategoryList
)

// CategoryValue is one category mentioned by a place.
type CategoryValue struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Slug string `json:"slug,omitempty"`
}

// CategoryRef is a category reference that is a bare name, a single object,
// or a list of names/objects/ids.
type CategoryRef struct {
	Kind  CategoryKind
	Items []CategoryValue
}

// Names returns the non-empty category names in order.
func (c CategoryRef) Names() []string {
	names := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		if n := strings.TrimSpace(item.Name); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// FirstID returns the first positive category id.
func (c CategoryRef) FirstID() (int, bool) {
	for _, item := range c.Items {
		if item.ID > 0 {
			return item.ID, true
		}
	}
	return 0, false
}

// UnmarshalJSON accepts a string, an object, a number or an array of those.
func (c *CategoryRef) UnmarshalJSON(data []byte) error {
	*c = CategoryRef{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '[' {
		var raw []json.RawMessage
		if json.Unmarshal(data, &raw) != nil {
			return nil
		}
		items := make([]CategoryValue, 0, len(raw))
		for _, element := range raw {
			if v, ok := decodeCategoryValue(element); ok {
				items = append(items, v)
			}
		}
		if len(items) > 0 {
			*c = CategoryRef{Kind: CategoryList, Items: items}
		}
		return nil
	}

	v, ok := decodeCategoryValue(data)
	if !ok {
		return nil
	}
	kind := CategoryObject
	if data[0] == '"' {
		kind = CategoryName
	}
	*c = CategoryRef{Kind: kind, Items: []CategoryValue{v}}
	return nil
}

// MarshalJSON writes the list form so cached records round-trip.
func (c CategoryRef) MarshalJSON() ([]byte, error) {
	if c.Kind == CategoryAbsent {
		return []byte("null"), nil
	}
	return json.Marshal(c.Items)
}

func decodeCategoryValue(data json.RawMessage) (CategoryValue, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return CategoryValue{}, false
	}

	switch data[0] {
	case '"':
		var s string
		if json.Unmarshal(data, &s) != nil || strings.TrimSpace(s) == "" {
			return CategoryValue{}, false
		}
		return CategoryValue{Name: s}, true
	case '{':
		var obj struct {
			ID   FlexString `json:"id"`
			Name RichText   `json:"name"`
			Slug string     `json:"slug"`
		}
		if json.Unmarshal(data, &obj) != nil {
			return CategoryValue{}, false
		}
		id, _ := strconv.Atoi(obj.ID.String())
		v := CategoryValue{ID: id, Name: obj.Name.Plain(), Slug: obj.Slug}
		if v.ID == 0 && v.Name == "" && v.Slug == "" {
			return CategoryValue{}, false
		}
		return v, true
	default:
		var n float64
		if json.Unmarshal(data, &n) != nil || n <= 0 {
			return CategoryValue{}, false
		}
		return CategoryValue{ID: int(n)}, true
	}
}

// FlexString accepts a JSON string or number and keeps its textual form.
type FlexString string

// String returns the trimmed textual value.
func (f FlexString) String() string {
	return strings.TrimSpace(string(f))
}

// UnmarshalJSON accepts strings and numbers; other shapes become empty.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	*f = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch {
	case data[0] == '"':
		var s string
		if json.Unmarshal(data, &s) == nil {
			*f = FlexString(s)
		}
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		var n json.Number
		if json.Unmarshal(data, &n) == nil {
			*f = FlexString(n.String())
		}
	}
	return nil
}

// FlexFloat accepts a JSON number or numeric string. Valid is false when the
// field was absent or not a finite number.
type FlexFloat struct {
	Value float64
	Valid bool
}

// UnmarshalJSON accepts numbers and numeric strings.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = FlexFloat{}
	var s FlexString
	_ = s.UnmarshalJSON(data)
	v, err := strconv.ParseFloat(s.String(), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*f = FlexFloat{Value: v, Valid: true}
	return nil
}

// MarshalJSON writes the number or null.
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// FlexBool accepts true/false, 0/1 and their string forms.
type FlexBool bool

// UnmarshalJSON accepts booleans, numbers and strings.
func (f *FlexBool) UnmarshalJSON(data []byte) error {
	*f = false
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	var b bool
	if json.Unmarshal(data, &b) == nil {
		*f = FlexBool(b)
		return nil
	}
	var s FlexString
	_ = s.UnmarshalJSON(data)
	switch strings.ToLower(s.String()) {
	case "1", "true", "yes", "on":
		*f = true
	}
	return nil
}
