package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apphttp "lead_engine_backend/internal/http"
	"lead_engine_backend/platform/config"
	"lead_engine_backend/platform/logger"
	"lead_engine_backend/platform/metrics"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type echoModule struct{}

func (echoModule) Name() string { return "echo" }

func (echoModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Dealer.GET("/echo", func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("dealerId"))
	})
}

func newApp(health map[string]apphttp.HealthChecker) *apphttp.App {
	return &apphttp.App{
		Config:  &config.Config{CORSOrigins: []string{"http://localhost:4200"}},
		Logger:  logger.Nop(),
		Metrics: metrics.New(),
		Health:  health,
		Modules: []apphttp.Module{echoModule{}},
	}
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndModuleRoutes(t *testing.T) {
	engine := New(newApp(nil))

	if code := get(engine, "/api/health").Code; code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", code)
	}

	rec := get(engine, "/api/v1/dealers/d-42/echo")
	if rec.Code != http.StatusOK {
		t.Fatalf("echo: expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "d-42" {
		t.Errorf("expected dealer id in body, got %q", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestReadinessReportsFailingDependency(t *testing.T) {
	engine := New(newApp(map[string]apphttp.HealthChecker{
		"database": pinger{},
		"redis":    pinger{err: errors.New("connection refused")},
	}))

	rec := get(engine, "/api/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("expected failing dependency in body, got %s", rec.Body.String())
	}

	healthy := New(newApp(map[string]apphttp.HealthChecker{"database": pinger{}}))
	if code := get(healthy, "/api/ready").Code; code != http.StatusOK {
		t.Errorf("healthy: expected 200, got %d", code)
	}
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	engine := New(newApp(nil))
	get(engine, "/api/health")

	rec := get(engine, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Error("expected http_requests_total in metrics output")
	}
}
