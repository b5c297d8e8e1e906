package maps

import (
	apphttp "storefront_backend/internal/http"
	"storefront_backend/platform/config"
	"storefront_backend/platform/logger"
	"storefront_backend/platform/validator"
)

// Module wires the geocoding HTTP routes.
type Module struct {
	service *Service
	handler *Handler
}

func NewModule(cfg config.GeocoderConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(cfg, log)
	h := NewHandler(svc, val)
	return &Module{service: svc, handler: h}
}

// Service exposes the geocoder to other modules.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) Name() string {
	return "maps"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/maps")
	group.GET("/geocode", m.handler.Geocode)
}

var _ apphttp.Module = (*Module)(nil)
