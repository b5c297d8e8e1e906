package maps

import (
	"net/http"
	"strings"

	"storefront_backend/platform/httpkit"
	"storefront_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler exposes the geocoding endpoint.
type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Geocode handles GET /api/v1/maps/geocode?q=...
func (h *Handler) Geocode(c *gin.Context) {
	req := GeocodeRequest{Query: strings.TrimSpace(c.Query("q"))}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "query 'q' is required", nil)
		return
	}

	result, err := h.svc.Geocode(c.Request.Context(), req.Query)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, GeocodeResponse{Match: result})
}
