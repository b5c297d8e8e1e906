// Package directory provides the vendor directory bounded context module.
package directory

import (
	"context"
	"fmt"

	"storefront_backend/internal/directory/cache"
	"storefront_backend/internal/directory/domain"
	"storefront_backend/internal/directory/geo"
	"storefront_backend/internal/directory/handler"
	"storefront_backend/internal/directory/location"
	"storefront_backend/internal/directory/markers"
	"storefront_backend/internal/directory/normalize"
	"storefront_backend/internal/directory/pipeline"
	"storefront_backend/internal/directory/repository"
	"storefront_backend/internal/directory/service"
	apphttp "storefront_backend/internal/http"
	"storefront_backend/internal/maps"
	"storefront_backend/platform/config"
	"storefront_backend/platform/logger"
	"storefront_backend/platform/phone"
	"storefront_backend/platform/validator"
)

// Config is the configuration the directory module reads.
type Config interface {
	config.DirectoryConfig
	config.ContentAPIConfig
}

// Module is the directory bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	manager *service.Manager
}

// NewModule creates and initializes the directory module. geocoder may be nil,
// in which case manual location lookup reports an internal error.
func NewModule(cfg Config, store cache.Store, geocoder location.Geocoder, val *validator.Validator, log *logger.Logger) (*Module, error) {
	unit := geo.ParseUnit(cfg.GetDistanceUnit())
	icons, err := markers.LoadIconTable(cfg.GetCategoryIconsFile())
	if err != nil {
		return nil, fmt.Errorf("load category icons: %w", err)
	}

	client := repository.New(cfg)
	normalizer := normalize.New(normalize.Options{
		PlaceholderLogoURL:   cfg.GetPlaceholderLogoURL(),
		PlaceholderBannerURL: cfg.GetPlaceholderBannerURL(),
		Unit:                 unit,
		Phone:                phone.NewNormalizer(cfg.GetPhoneDefaultRegion()),
	})

	deps := &service.Deps{
		Fetcher:    service.NewFetcher(client, log),
		Taxonomy:   service.NewTaxonomy(client, icons, cfg.GetCacheTTL(), log),
		Pipeline:   pipeline.New(normalizer),
		Normalizer: normalizer,
		Places:     client,
		Geocoder:   geocoder,
		Debounce:   cfg.GetDebounce(),
		Log:        log,
	}
	mgr := service.NewManager(deps, store, cfg.GetCacheTTL(), cfg.GetSessionIdleTTL())

	return &Module{
		handler: handler.New(mgr, val, unit, log),
		manager: mgr,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "directory"
}

// Manager returns the session manager for the scheduler worker.
func (m *Module) Manager() *service.Manager {
	return m.manager
}

// Start sweeps idle sessions in the background until ctx is done.
func (m *Module) Start(ctx context.Context) {
	go m.manager.Run(ctx)
}

// Close ends every live session.
func (m *Module) Close() {
	m.manager.Close()
}

// RegisterRoutes mounts directory routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/directory")
	group.GET("/vendors", m.handler.ListVendors)
	group.GET("/categories", m.handler.ListCategories)

	sessions := group.Group("/sessions")
	sessions.POST("", m.handler.CreateSession)
	sessions.GET("/:id", m.handler.GetSession)
	sessions.DELETE("/:id", m.handler.EndSession)
	sessions.PATCH("/:id/filters", m.handler.UpdateFilters)
	sessions.PUT("/:id/page", m.handler.SetPage)
	sessions.PUT("/:id/sort", m.handler.SetSort)
	sessions.PUT("/:id/selection", m.handler.Select)
	sessions.DELETE("/:id/selection", m.handler.ClearSelection)
	sessions.POST("/:id/location/device", m.handler.ResolveDeviceLocation)
	sessions.POST("/:id/location/manual", m.handler.ResolveManualLocation)
	sessions.DELETE("/:id/location", m.handler.ClearLocation)
	sessions.POST("/:id/refresh", m.handler.Refresh)
	sessions.GET("/:id/suggestions", m.handler.Suggest)
}

// MapsGeocoder adapts the maps geocoding service to the location resolver.
type MapsGeocoder struct {
	Service *maps.Service
}

// Geocode returns the first match for query, or nil when there is none.
func (g MapsGeocoder) Geocode(ctx context.Context, query string) (*location.Match, error) {
	result, err := g.Service.Geocode(ctx, query)
	if err != nil || result == nil {
		return nil, err
	}
	return &location.Match{
		Coordinate: domain.Coordinate{Latitude: result.Latitude, Longitude: result.Longitude},
		Label:      result.Label,
	}, nil
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
