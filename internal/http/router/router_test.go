package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apphttp "storefront_backend/internal/http"
	"storefront_backend/platform/config"
	"storefront_backend/platform/logger"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type echoModule struct{}

func (echoModule) Name() string { return "echo" }

func (echoModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/echo", func(c *gin.Context) { c.String(http.StatusOK, "echo") })
}

func newApp(health apphttp.HealthChecker) *apphttp.App {
	gin.SetMode(gin.TestMode)
	return &apphttp.App{
		Config: &config.Config{
			CORSOrigins:        []string{"http://shop.test"},
			RateLimitPerMinute: 0,
		},
		Logger:  logger.Discard(),
		Health:  health,
		Modules: []apphttp.Module{echoModule{}},
	}
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHealthAndModuleRoutes(t *testing.T) {
	engine := New(newApp(nil))

	if w := serve(engine, httptest.NewRequest(http.MethodGet, "/api/health", nil)); w.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", w.Code)
	}
	if w := serve(engine, httptest.NewRequest(http.MethodGet, "/api/ready", nil)); w.Code != http.StatusOK {
		t.Fatalf("expected ready without a health checker, got %d", w.Code)
	}
	w := serve(engine, httptest.NewRequest(http.MethodGet, "/api/v1/echo", nil))
	if w.Code != http.StatusOK || w.Body.String() != "echo" {
		t.Fatalf("module route not mounted: %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("security headers missing")
	}
}

func TestReadyReportsFailedPing(t *testing.T) {
	engine := New(newApp(pinger{err: errors.New("redis down")}))

	if w := serve(engine, httptest.NewRequest(http.MethodGet, "/api/ready", nil)); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	engine := New(newApp(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/echo", nil)
	req.Header.Set("Origin", "http://shop.test")
	w := serve(engine, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://shop.test" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/echo", nil)
	req.Header.Set("Origin", "http://evil.test")
	if w := serve(engine, req); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unknown origin, got %d", w.Code)
	}
}
