// Package repository talks to the remote content backend that serves places,
// categories and regions.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"storefront_backend/internal/directory/domain"
	"storefront_backend/platform/apperr"
	"storefront_backend/platform/config"
)

const (
	placesPath     = "/places"
	categoriesPath = "/categories"
	regionsPath    = "/regions"
)

// PlaceQuery carries the filters the content backend supports server-side.
// A zero Limit requests the configured bulk page size.
type PlaceQuery struct {
	Search   string
	Category string
	Limit    int
}

// Client is the content backend API client.
type Client struct {
	http    *resty.Client
	perPage int
}

// New creates a Client from config.
func New(cfg config.ContentAPIConfig) *Client {
	c := resty.New().
		SetBaseURL(cfg.GetContentAPIURL()).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.GetContentAPITimeout())
	if key := cfg.GetContentAPIKey(); key != "" {
		c.SetAuthToken(key)
	}

	perPage := cfg.GetContentAPIPageSize()
	if perPage < 1 {
		perPage = 100
	}
	return &Client{http: c, perPage: perPage}
}

// ListPlaces returns every place matching q in a single bulk request.
func (c *Client) ListPlaces(ctx context.Context, q PlaceQuery) ([]domain.Place, error) {
	perPage := c.perPage
	if q.Limit > 0 && q.Limit < perPage {
		perPage = q.Limit
	}
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("per_page", strconv.Itoa(perPage))
	if s := strings.TrimSpace(q.Search); s != "" {
		req.SetQueryParam("search", s)
	}
	if cat := strings.TrimSpace(q.Category); cat != "" && !domain.IsAll(cat) {
		req.SetQueryParam("category", cat)
	}

	body, err := c.do(req, placesPath)
	if err != nil {
		return nil, err
	}

	var places []domain.Place
	if err := decodeList(body, &places); err != nil {
		return nil, apperr.Upstream("content backend returned an unreadable place list", err).WithOp("repository.ListPlaces")
	}
	if places == nil {
		places = []domain.Place{}
	}
	return places, nil
}

// ListCategories returns the category taxonomy.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	body, err := c.do(c.http.R().SetContext(ctx), categoriesPath)
	if err != nil {
		return nil, err
	}

	var raw []struct {
		ID   domain.FlexString `json:"id"`
		Name domain.RichText   `json:"name"`
		Slug string            `json:"slug"`
		Icon string            `json:"icon"`
	}
	if err := decodeList(body, &raw); err != nil {
		return nil, apperr.Upstream("content backend returned an unreadable category list", err).WithOp("repository.ListCategories")
	}

	categories := make([]domain.Category, 0, len(raw))
	for _, item := range raw {
		id, _ := strconv.Atoi(item.ID.String())
		name := strings.TrimSpace(item.Name.Plain())
		if id == 0 && name == "" {
			continue
		}
		categories = append(categories, domain.Category{ID: id, Name: name, Slug: item.Slug, Icon: item.Icon})
	}
	return categories, nil
}

// ListRegions returns region/city pairs from the taxonomy endpoint.
// The endpoint is optional on some deployments, callers fall back on failure.
func (c *Client) ListRegions(ctx context.Context) ([]domain.RegionCities, error) {
	body, err := c.do(c.http.R().SetContext(ctx), regionsPath)
	if err != nil {
		return nil, err
	}

	var raw []struct {
		Name   string   `json:"name"`
		Region string   `json:"region"`
		Cities []string `json:"cities"`
	}
	if err := decodeList(body, &raw); err != nil {
		return nil, apperr.Upstream("content backend returned an unreadable region list", err).WithOp("repository.ListRegions")
	}

	regions := make([]domain.RegionCities, 0, len(raw))
	for _, item := range raw {
		name := strings.TrimSpace(item.Region)
		if name == "" {
			name = strings.TrimSpace(item.Name)
		}
		if name == "" {
			continue
		}
		cities := make([]string, 0, len(item.Cities))
		for _, city := range item.Cities {
			if city = strings.TrimSpace(city); city != "" {
				cities = append(cities, city)
			}
		}
		regions = append(regions, domain.RegionCities{Region: name, Cities: cities})
	}
	return regions, nil
}

// do executes req and classifies failures: network and timeout errors become
// KindUnavailable, non-2xx answers become KindUpstream with the server's message.
func (c *Client) do(req *resty.Request, path string) ([]byte, error) {
	op := "repository.GET " + path
	resp, err := req.Get(path)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, apperr.Canceled("request canceled").WithOp(op)
		}
		return nil, apperr.Unavailable("content backend unreachable", err).WithOp(op)
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		msg := errorMessage(resp.Body())
		if msg == "" {
			msg = fmt.Sprintf("content backend returned status %d", resp.StatusCode())
		}
		return nil, apperr.Upstream(msg, fmt.Errorf("status %d", resp.StatusCode())).
			WithOp(op).
			WithDetails(map[string]int{"status": resp.StatusCode()})
	}
	return resp.Body(), nil
}

// decodeList accepts either a bare JSON array or an envelope holding the
// array under data, items or places.
func decodeList(body []byte, out any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return errors.New("empty body")
	}
	if body[0] == '[' {
		return json.Unmarshal(body, out)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return err
	}
	for _, field := range []string{"data", "items", "places", "results"} {
		if raw, ok := envelope[field]; ok {
			return json.Unmarshal(raw, out)
		}
	}
	return errors.New("no list in response")
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	if m := strings.TrimSpace(payload.Message); m != "" {
		return m
	}
	var s string
	if json.Unmarshal(payload.Error, &s) == nil {
		return strings.TrimSpace(s)
	}
	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(payload.Error, &nested) == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}
