package transport

import (
	"storefront_backend/internal/directory/domain"
	"storefront_backend/internal/directory/geo"
	"storefront_backend/internal/directory/location"
	"storefront_backend/internal/directory/markers"
	"storefront_backend/internal/directory/pipeline"
	"storefront_backend/internal/directory/service"
)

// Sessions

type FiltersRequest struct {
	Search    *string  `json:"search,omitempty" validate:"omitempty,max=200"`
	Category  *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	Region    *string  `json:"region,omitempty" validate:"omitempty,max=100"`
	City      *string  `json:"city,omitempty" validate:"omitempty,max=100"`
	MinRating *float64 `json:"minRating,omitempty" validate:"omitempty,min=0,max=5"`
	OpenNow   *bool    `json:"openNow,omitempty"`
	Verified  *bool    `json:"verified,omitempty"`
	Featured  *bool    `json:"featured,omitempty"`
}

type CreateSessionRequest struct {
	Filters *FiltersRequest `json:"filters,omitempty" validate:"omitempty"`
}

type SetPageRequest struct {
	Page int `json:"page" validate:"required,min=1"`
}

type SetSortRequest struct {
	Sort string `json:"sort" validate:"required,oneof=featured rating name distance"`
}

type SelectRequest struct {
	VendorID string `json:"vendorId" validate:"required,notblank,max=64"`
}

type DeviceLocationRequest struct {
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	ErrorCode string   `json:"errorCode,omitempty" validate:"max=64"`
}

type ManualLocationRequest struct {
	Query string `json:"query" validate:"required,notblank,max=120"`
}

type SuggestRequest struct {
	Query string `form:"q" validate:"max=200"`
}

// Stateless query

type ListVendorsRequest struct {
	Search    string   `form:"search" validate:"max=200"`
	Category  string   `form:"category" validate:"max=100"`
	Region    string   `form:"region" validate:"max=100"`
	City      string   `form:"city" validate:"max=100"`
	MinRating float64  `form:"minRating" validate:"min=0,max=5"`
	OpenNow   bool     `form:"openNow"`
	Verified  bool     `form:"verified"`
	Featured  bool     `form:"featured"`
	Pinned    string   `form:"pinned" validate:"max=64"`
	Sort      string   `form:"sort" validate:"omitempty,oneof=featured rating name distance"`
	Page      int      `form:"page" validate:"omitempty,min=1"`
	Latitude  *float64 `form:"lat" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `form:"lng" validate:"omitempty,min=-180,max=180"`
}

// Responses

type VendorResponse struct {
	domain.Vendor
	DistanceLabel string `json:"distanceLabel,omitempty"`
}

type ViewResponse struct {
	SessionID     string              `json:"sessionId,omitempty"`
	Filters       domain.Filters      `json:"filters"`
	Sort          domain.SortKey      `json:"sort"`
	SortExplicit  bool                `json:"sortExplicit"`
	Page          int                 `json:"page"`
	PageSize      int                 `json:"pageSize"`
	TotalPages    int                 `json:"totalPages"`
	TotalFiltered int                 `json:"totalFiltered"`
	Vendors       []VendorResponse    `json:"vendors"`
	Markers       []markers.Marker    `json:"markers"`
	Regions       []string            `json:"regions"`
	Cities        []string            `json:"cities"`
	Categories    []domain.Category   `json:"categories"`
	Location      location.Snapshot   `json:"location"`
	Pinned        bool                `json:"pinned"`
	Loading       bool                `json:"loading"`
	FromCache     bool                `json:"fromCache"`
	Error         *service.ErrorPanel `json:"error,omitempty"`
	CategoryError *service.ErrorPanel `json:"categoryError,omitempty"`
	DistanceUnit  string              `json:"distanceUnit"`
}

type LocationResponse struct {
	Location location.Snapshot `json:"location"`
	Sort     domain.SortKey    `json:"sort"`
}

type SuggestResponse struct {
	Items []service.Suggestion `json:"items"`
}

type CategoryListResponse struct {
	Items []domain.Category `json:"items"`
}

// =============================================================================
// Mapping
// =============================================================================

// Patch converts the request into a service filter patch.
func (r FiltersRequest) Patch() service.FilterPatch {
	return service.FilterPatch{
		Search:    r.Search,
		Category:  r.Category,
		Region:    r.Region,
		City:      r.City,
		MinRating: r.MinRating,
		OpenNow:   r.OpenNow,
		Verified:  r.Verified,
		Featured:  r.Featured,
	}
}

// InitialFilters returns the initial filters described by the request, or nil.
func (r CreateSessionRequest) InitialFilters() *domain.Filters {
	if r.Filters == nil {
		return nil
	}
	f := domain.DefaultFilters()
	f = applyPatch(f, *r.Filters)
	return &f
}

func applyPatch(f domain.Filters, r FiltersRequest) domain.Filters {
	if r.Search != nil {
		f.Search = *r.Search
	}
	if r.Category != nil {
		f.Category = *r.Category
	}
	if r.Region != nil {
		f.Region = *r.Region
	}
	if r.City != nil {
		f.City = *r.City
	}
	if r.MinRating != nil {
		f.MinRating = *r.MinRating
	}
	if r.OpenNow != nil {
		f.OpenNow = *r.OpenNow
	}
	if r.Verified != nil {
		f.Verified = *r.Verified
	}
	if r.Featured != nil {
		f.Featured = *r.Featured
	}
	return f
}

// Report converts the request into a device report.
func (r DeviceLocationRequest) Report() location.DeviceReport {
	return location.DeviceReport{Latitude: r.Latitude, Longitude: r.Longitude, ErrorCode: r.ErrorCode}
}

// Input converts the query string into a one-off pipeline request. The
// origin is only set when both coordinates are present.
func (r ListVendorsRequest) Input() service.QueryInput {
	in := service.QueryInput{
		Filters: domain.Filters{
			Search:    r.Search,
			Category:  r.Category,
			Region:    r.Region,
			City:      r.City,
			MinRating: r.MinRating,
			OpenNow:   r.OpenNow,
			Verified:  r.Verified,
			Featured:  r.Featured,
			PinnedID:  r.Pinned,
		},
		Page: r.Page,
	}
	if key, ok := domain.ParseSortKey(r.Sort); ok {
		in.Sort = key
	}
	if r.Latitude != nil && r.Longitude != nil {
		in.Origin = &domain.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}
	}
	return in
}

// NewViewResponse renders a view with display labels in unit.
func NewViewResponse(v service.View, unit geo.Unit) ViewResponse {
	vendors := make([]VendorResponse, len(v.Vendors))
	for i, vendor := range v.Vendors {
		vendors[i] = VendorResponse{Vendor: vendor}
		if vendor.Distance != nil {
			vendors[i].DistanceLabel = geo.Format(*vendor.Distance, unit)
		}
	}
	return ViewResponse{
		SessionID:     v.SessionID,
		Filters:       v.Filters,
		Sort:          v.Sort,
		SortExplicit:  v.SortExplicit,
		Page:          v.Page,
		PageSize:      pipeline.PageSize,
		TotalPages:    v.TotalPages,
		TotalFiltered: v.TotalFiltered,
		Vendors:       vendors,
		Markers:       v.Markers,
		Regions:       v.Regions,
		Cities:        v.Cities,
		Categories:    v.Categories,
		Location:      v.Location,
		Pinned:        v.Pinned,
		Loading:       v.Loading,
		FromCache:     v.FromCache,
		Error:         v.Error,
		CategoryError: v.CategoryError,
		DistanceUnit:  string(unit),
	}
}
