package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_backend/internal/directory/domain"
	"storefront_backend/internal/directory/geo"
	"storefront_backend/internal/directory/service"
	"storefront_backend/internal/directory/transport"
	"storefront_backend/platform/apperr"
	"storefront_backend/platform/httpkit"
	"storefront_backend/platform/logger"
	"storefront_backend/platform/validator"
)

// Handler handles HTTP requests for the vendor directory.
type Handler struct {
	mgr  *service.Manager
	val  *validator.Validator
	unit geo.Unit
	log  *logger.Logger
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidSort      = "invalid sort"
)

// New creates a new directory handler.
func New(mgr *service.Manager, val *validator.Validator, unit geo.Unit, log *logger.Logger) *Handler {
	return &Handler{mgr: mgr, val: val, unit: unit, log: log}
}

// CreateSession starts a directory session and runs its first fetch.
// POST /api/v1/directory/sessions
func (h *Handler) CreateSession(c *gin.Context) {
	var req transport.CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	s := h.mgr.Create(c.Request.Context(), req.InitialFilters())
	httpkit.Created(c, h.view(c, s))
}

// GetSession renders the current state of a session.
// GET /api/v1/directory/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	httpkit.OK(c, h.view(c, s))
}

// EndSession closes a session.
// DELETE /api/v1/directory/sessions/:id
func (h *Handler) EndSession(c *gin.Context) {
	if httpkit.HandleError(c, h.mgr.End(c.Request.Context(), c.Param("id"))) {
		return
	}
	httpkit.NoContent(c)
}

// UpdateFilters applies a partial filter change.
// PATCH /api/v1/directory/sessions/:id/filters
func (h *Handler) UpdateFilters(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.FiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	s.UpdateFilters(req.Patch())
	httpkit.OK(c, h.view(c, s))
}

// SetPage moves the session to another page. Out-of-range pages leave the
// session unchanged.
// PUT /api/v1/directory/sessions/:id/page
func (h *Handler) SetPage(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.SetPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	s.SetPage(req.Page)
	httpkit.OK(c, h.view(c, s))
}

// SetSort changes the vendor ordering.
// PUT /api/v1/directory/sessions/:id/sort
func (h *Handler) SetSort(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.SetSortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	key, ok := domain.ParseSortKey(req.Sort)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidSort, nil)
		return
	}

	s.SetSort(key)
	httpkit.OK(c, h.view(c, s))
}

// Select pins the list to one vendor.
// PUT /api/v1/directory/sessions/:id/selection
func (h *Handler) Select(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if httpkit.HandleError(c, s.Select(req.VendorID)) {
		return
	}
	httpkit.OK(c, h.view(c, s))
}

// ClearSelection removes the pin.
// DELETE /api/v1/directory/sessions/:id/selection
func (h *Handler) ClearSelection(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.ClearSelection()
	httpkit.OK(c, h.view(c, s))
}

// ResolveDeviceLocation applies the browser geolocation result.
// POST /api/v1/directory/sessions/:id/location/device
func (h *Handler) ResolveDeviceLocation(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.DeviceLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	_, err := s.ResolveDevice(req.Report())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, h.view(c, s))
}

// ResolveManualLocation geocodes a zip code or city.
// POST /api/v1/directory/sessions/:id/location/manual
func (h *Handler) ResolveManualLocation(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.ManualLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	_, err := s.ResolveManual(c.Request.Context(), req.Query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, h.view(c, s))
}

// ClearLocation forgets the session's location.
// DELETE /api/v1/directory/sessions/:id/location
func (h *Handler) ClearLocation(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.ClearLocation()
	httpkit.OK(c, h.view(c, s))
}

// Refresh retries the fetch immediately. Fetch failures are reported in the
// view's error panel, not as an HTTP error.
// POST /api/v1/directory/sessions/:id/refresh
func (h *Handler) Refresh(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Refresh(c.Request.Context()); err != nil && !apperr.Is(err, apperr.KindCanceled) {
		h.log.WithSessionID(s.ID()).Warn("refresh failed", "error", err)
	}
	httpkit.OK(c, h.view(c, s))
}

// Suggest returns search suggestions for the session's category.
// GET /api/v1/directory/sessions/:id/suggestions?q=
func (h *Handler) Suggest(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.SuggestRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	items, err := s.Suggest(c.Request.Context(), req.Query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.SuggestResponse{Items: items})
}

// ListVendors runs a one-off filter, sort and paginate query.
// GET /api/v1/directory/vendors
func (h *Handler) ListVendors(c *gin.Context) {
	var req transport.ListVendorsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	v, err := h.mgr.Query(c.Request.Context(), req.Input())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewViewResponse(v, h.unit))
}

// ListCategories returns the category taxonomy.
// GET /api/v1/directory/categories
func (h *Handler) ListCategories(c *gin.Context) {
	items, err := h.mgr.Categories(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.CategoryListResponse{Items: items})
}

func (h *Handler) session(c *gin.Context) (*service.Session, bool) {
	s, err := h.mgr.Get(c.Param("id"))
	if httpkit.HandleError(c, err) {
		return nil, false
	}
	return s, true
}

func (h *Handler) view(c *gin.Context, s *service.Session) transport.ViewResponse {
	return transport.NewViewResponse(s.View(c.Request.Context()), h.unit)
}
