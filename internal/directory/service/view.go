package service

import (
	"storefront_backend/internal/directory/domain"
	"storefront_backend/internal/directory/location"
	"storefront_backend/internal/directory/markers"
	"storefront_backend/internal/directory/pipeline"
	"storefront_backend/platform/apperr"
)

// ErrorPanel is the dismissible error shown in place of the vendor list.
type ErrorPanel struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

const (
	transportMessage = "We couldn't reach the vendor directory. Check your connection and try again."
	upstreamMessage  = "The vendor directory returned an error. Please try again."
	categoryMessage  = "Categories couldn't be loaded. Map icons may be missing."
)

func panelFor(err error) *ErrorPanel {
	kind := apperr.GetKind(err)
	msg := upstreamMessage
	switch kind {
	case apperr.KindUnavailable:
		msg = transportMessage
	case apperr.KindUpstream:
		msg = apperr.Message(err, upstreamMessage)
	}
	return &ErrorPanel{Kind: kind.String(), Message: msg, Retryable: true}
}

// categoryFailure classifies a category fetch error. Transport and upstream
// failures take over the list like a failed place fetch; anything else only
// annotates the view.
func categoryFailure(err error) (panel, note *ErrorPanel) {
	switch {
	case err == nil:
		return nil, nil
	case apperr.IsTransport(err) || apperr.IsUpstream(err):
		return panelFor(err), nil
	default:
		return nil, &ErrorPanel{Kind: apperr.GetKind(err).String(), Message: categoryMessage, Retryable: true}
	}
}

// View is everything the directory page renders for one state.
type View struct {
	SessionID     string            `json:"sessionId,omitempty"`
	Filters       domain.Filters    `json:"filters"`
	Sort          domain.SortKey    `json:"sort"`
	SortExplicit  bool              `json:"sortExplicit"`
	Page          int               `json:"page"`
	TotalPages    int               `json:"totalPages"`
	TotalFiltered int               `json:"totalFiltered"`
	Vendors       []domain.Vendor   `json:"vendors"`
	Markers       []markers.Marker  `json:"markers"`
	Regions       []string          `json:"regions"`
	Cities        []string          `json:"cities"`
	Categories    []domain.Category `json:"categories"`
	Location      location.Snapshot `json:"location"`
	Pinned        bool              `json:"pinned"`
	Loading       bool              `json:"loading"`
	FromCache     bool              `json:"fromCache"`
	Error         *ErrorPanel       `json:"error,omitempty"`
	CategoryError *ErrorPanel       `json:"categoryError,omitempty"`
}

type renderInput struct {
	places      []domain.Place
	filters     domain.Filters
	sort        domain.SortKey
	page        int
	origin      *domain.Coordinate
	categories  []domain.Category
	regions     []domain.RegionCities
	fetchFailed *ErrorPanel
}

// render runs the pipeline and the marker projector. A failed fetch renders
// an empty list with the error panel instead of stale data.
func (d *Deps) render(in renderInput) View {
	v := View{
		Filters:    in.filters,
		Sort:       in.sort,
		Page:       1,
		TotalPages: 1,
		Vendors:    []domain.Vendor{},
		Markers:    []markers.Marker{},
		Categories: in.categories,
		Error:      in.fetchFailed,
	}
	if v.Categories == nil {
		v.Categories = []domain.Category{}
	}

	v.Regions = make([]string, 0, len(in.regions))
	for _, rc := range in.regions {
		v.Regions = append(v.Regions, rc.Region)
	}
	v.Cities = pipeline.CitiesFor(in.regions, in.filters.Region)

	if in.fetchFailed != nil {
		return v
	}

	res := d.Pipeline.Run(pipeline.Input{
		Places:  in.places,
		Filters: in.filters,
		Sort:    in.sort,
		Page:    in.page,
		Origin:  in.origin,
	})
	v.Vendors = res.Vendors
	v.Page = res.Page
	v.TotalPages = res.TotalPages
	v.TotalFiltered = res.TotalFiltered
	v.Pinned = res.Pinned
	v.Markers = markers.Project(res.MapVendors, d.Taxonomy.IconResolver(in.categories), in.filters.PinnedID)
	return v
}
