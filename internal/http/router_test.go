package http

import (
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/dxplatform-backend/internal/http/handlers"
	"github.com/yungbote/dxplatform-backend/internal/observability"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

func TestRouterRegistersRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterConfig{
		Log:              logger.Nop(),
		Metrics:          observability.NewMetrics(),
		IngestHandler:    httpH.NewIngestHandler(nil),
		DetectionHandler: httpH.NewDetectionHandler(nil),
		ProjectHandler:   httpH.NewProjectHandler(nil),
		HierarchyHandler: httpH.NewHierarchyHandler(nil),
		HealthHandler:    httpH.NewHealthHandler(nil),
	})

	got := map[string]bool{}
	for _, ri := range r.Routes() {
		got[ri.Method+" "+ri.Path] = true
	}
	for _, want := range []string{
		"GET /healthcheck",
		"GET /metrics",
		"POST /api/v1/ingest",
		"POST /api/v1/projects/detect-by-objects",
		"POST /api/v1/navisworks/projects/:code/revisions/:number/hierarchy",
		"GET /api/v1/projects/:code",
		"DELETE /api/v1/projects/:code",
		"GET /api/v1/projects/:code/revisions",
		"GET /api/v1/projects/:code/revisions/latest/:source_type",
		"DELETE /api/v1/projects/:code/revisions/:number",
		"GET /api/v1/projects/:code/revisions/:number",
		"GET /api/v1/projects/:code/revisions/:number/objects",
		"GET /api/v1/navisworks/projects/:code/hierarchy",
	} {
		if !got[want] {
			t.Errorf("route %q not registered", want)
		}
	}
}

func TestRouterServesHealthAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()
	r := NewRouter(RouterConfig{Metrics: m, HealthHandler: httpH.NewHealthHandler(nil)})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/healthcheck", nil))
	if rec.Code != nethttp.StatusOK || rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("healthcheck status=%d headers=%v", rec.Code, rec.Header())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/metrics", nil))
	if rec.Code != nethttp.StatusOK || !strings.Contains(rec.Body.String(), "dx_http_requests_total") {
		t.Fatalf("metrics status=%d body=%s", rec.Code, rec.Body.String())
	}
}
