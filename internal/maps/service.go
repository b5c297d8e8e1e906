package maps

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"storefront_backend/platform/apperr"
	"storefront_backend/platform/config"
	"storefront_backend/platform/logger"
)

const requestTimeout = 5 * time.Second

// Service resolves free-text places (zip codes, city names) through Nominatim.
// Requests are throttled to respect the public instance's usage policy.
type Service struct {
	client       *resty.Client
	searchURL    string
	countryCodes string
	limiter      *rate.Limiter
	log          *logger.Logger
}

func NewService(cfg config.GeocoderConfig, log *logger.Logger) *Service {
	rps := cfg.GetGeocoderRatePerSecond()
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	client := resty.New().
		SetTimeout(requestTimeout).
		SetHeader("User-Agent", cfg.GetGeocoderUserAgent()).
		SetHeader("Accept", "application/json")

	return &Service{
		client:       client,
		searchURL:    cfg.GetGeocoderURL(),
		countryCodes: strings.TrimSpace(cfg.GetGeocoderCountryCodes()),
		limiter:      rate.NewLimiter(limit, 1),
		log:          log,
	}
}

// Geocode returns the best match for query, or nil when nothing matched.
func (s *Service) Geocode(ctx context.Context, query string) (*GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("query is required")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, apperr.Unavailable("location lookup is busy", err).WithOp("maps.Geocode")
	}

	params := map[string]string{
		"q":              query,
		"format":         "json",
		"addressdetails": "1",
		"limit":          "1",
	}
	if s.countryCodes != "" {
		params["countrycodes"] = s.countryCodes
	}

	var rawResults []nominatimResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&rawResults).
		Get(s.searchURL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, apperr.Canceled("location lookup canceled").WithOp("maps.Geocode")
		}
		s.log.UpstreamError("nominatim", err)
		return nil, apperr.Unavailable("location lookup service unavailable", err).WithOp("maps.Geocode")
	}

	if resp.StatusCode() != http.StatusOK {
		upstreamErr := fmt.Errorf("upstream api error: %d", resp.StatusCode())
		s.log.UpstreamError("nominatim", upstreamErr)
		return nil, apperr.Upstream("location lookup service unavailable", upstreamErr).WithOp("maps.Geocode")
	}

	for _, raw := range rawResults {
		if result, ok := buildResult(raw); ok {
			return &result, nil
		}
	}
	return nil, nil
}

func buildResult(raw nominatimResponse) (GeocodeResult, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(raw.Lat), 64)
	if err != nil {
		return GeocodeResult{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(raw.Lon), 64)
	if err != nil {
		return GeocodeResult{}, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return GeocodeResult{}, false
	}

	result := GeocodeResult{
		City:      pickCity(raw.Address),
		ZipCode:   raw.Address.Postcode,
		Latitude:  lat,
		Longitude: lon,
	}
	result.Label = buildLabel(result, raw)
	return result, true
}

func pickCity(address nominatimAddress) string {
	if address.City != "" {
		return address.City
	}
	if address.Town != "" {
		return address.Town
	}
	if address.Village != "" {
		return address.Village
	}
	if address.Municipality != "" {
		return address.Municipality
	}
	return address.Hamlet
}

// buildLabel prefers "zip city" and falls back to the first two parts of the
// display name.
func buildLabel(result GeocodeResult, raw nominatimResponse) string {
	parts := make([]string, 0, 2)
	if result.ZipCode != "" {
		parts = append(parts, result.ZipCode)
	}
	if result.City != "" {
		parts = append(parts, result.City)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	display := strings.Split(raw.DisplayName, ",")
	if len(display) > 2 {
		display = display[:2]
	}
	for i := range display {
		display[i] = strings.TrimSpace(display[i])
	}
	return strings.Join(display, ", ")
}
