package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	ingestObjects *prometheus.CounterVec
	ingestLatency *prometheus.HistogramVec
	detectCache   *prometheus.CounterVec
	detectLatency *prometheus.HistogramVec
	hierarchyRows *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dx",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dx",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "route"},
		),
		ingestObjects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dx",
				Name:      "ingest_objects_total",
				Help:      "Objects seen by the ingestion pipeline by outcome (written, skipped)",
			},
			[]string{"source_type", "outcome"},
		),
		ingestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dx",
				Name:      "ingest_duration_seconds",
				Help:      "Ingestion call duration by payload path",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
			},
			[]string{"path", "status"},
		),
		detectCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dx",
				Name:      "detection_cache_total",
				Help:      "Detection cache lookups by result (hit, miss, error)",
			},
			[]string{"result"},
		),
		detectLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dx",
				Name:      "detection_duration_seconds",
				Help:      "Detection query duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"cached"},
		),
		hierarchyRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dx",
				Name:      "hierarchy_rows_total",
				Help:      "Hierarchy attribute rows by outcome (accepted, failed)",
			},
			[]string{"outcome"},
		),
	}
	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpLatency,
		m.ingestObjects,
		m.ingestLatency,
		m.detectCache,
		m.detectLatency,
		m.hierarchyRows,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) IngestObjects(sourceType, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ingestObjects.WithLabelValues(sourceType, outcome).Add(float64(n))
}

func (m *Metrics) ObserveIngest(path string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ingestLatency.WithLabelValues(path, status).Observe(d.Seconds())
}

func (m *Metrics) DetectionCache(result string) {
	if m == nil {
		return
	}
	m.detectCache.WithLabelValues(result).Inc()
}

// DetectionCacheCounter exposes the hit/miss counter vec for cache decorators.
func (m *Metrics) DetectionCacheCounter() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.detectCache
}

func (m *Metrics) ObserveDetection(cached bool, d time.Duration) {
	if m == nil {
		return
	}
	m.detectLatency.WithLabelValues(strconv.FormatBool(cached)).Observe(d.Seconds())
}

func (m *Metrics) HierarchyRows(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.hierarchyRows.WithLabelValues(outcome).Add(float64(n))
}
