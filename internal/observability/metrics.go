package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-wide Prometheus instruments.
type Metrics struct {
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	handler           http.Handler
}

// NewMetrics registers on the default registry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer, promhttp.Handler())
}

// NewMetricsWithRegistry registers on an isolated registry, for tests.
func NewMetricsWithRegistry(reg *prometheus.Registry) *Metrics {
	return newMetrics(reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}

func newMetrics(reg prometheus.Registerer, handler http.Handler) *Metrics {
	m := &Metrics{
		handler: handler,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total snapshot cache hits observed.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total snapshot cache misses observed.",
		}),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.cacheHits,
		m.cacheMisses,
	)

	return m
}

// CacheHit records one cache hit.
func (m *Metrics) CacheHit() { m.cacheHits.Inc() }

// CacheMiss records one cache miss.
func (m *Metrics) CacheMiss() { m.cacheMisses.Inc() }

// Handler exposes the registry for the /metrics route.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler instruments one route with request count and duration.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Seconds()
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(duration)
	})
}
