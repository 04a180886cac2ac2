package observability

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()
	m.DetectionCache("hit")
	m.DetectionCache("miss")
	m.DetectionCache("miss")
	m.IngestObjects("revit", "written", 3)
	m.IngestObjects("revit", "skipped", 0)
	m.ObserveIngest("dual", errors.New("x"), time.Millisecond)

	if got := testutil.ToFloat64(m.detectCache.WithLabelValues("miss")); got != 2 {
		t.Fatalf("miss=%v", got)
	}
	if got := testutil.ToFloat64(m.ingestObjects.WithLabelValues("revit", "written")); got != 3 {
		t.Fatalf("written=%v", got)
	}
	if n := testutil.CollectAndCount(m.ingestLatency); n != 1 {
		t.Fatalf("ingest latency series=%d", n)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "dx_detection_cache_total") {
		t.Fatalf("exposition missing detection cache counter")
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.DetectionCache("hit")
	m.IngestObjects("revit", "written", 1)
	m.ObserveHTTP("GET", "/x", 200, time.Millisecond)
	if m.DetectionCacheCounter() != nil {
		t.Fatalf("expected nil counter")
	}
}
