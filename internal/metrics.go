package internal

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics collection for HTTP requests and
// inventory levels
type Metrics struct {
	reqTotal   *prometheus.CounterVec
	reqLatency *prometheus.HistogramVec
	assetSets  prometheus.Gauge
	liveFeeds  *prometheus.GaugeVec
	registry   *prometheus.Registry
}

// NewMetrics creates a new Metrics instance with a private Prometheus registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	reqTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	reqLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	assetSets := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_asset_sets",
			Help: "Asset sets currently tracked",
		},
	)

	liveFeeds := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inventory_live_feed_subscribers",
			Help: "Open live feed connections per collection",
		},
		[]string{"collection"},
	)

	registry.MustRegister(reqTotal, reqLatency, assetSets, liveFeeds)

	return &Metrics{
		reqTotal:   reqTotal,
		reqLatency: reqLatency,
		assetSets:  assetSets,
		liveFeeds:  liveFeeds,
		registry:   registry,
	}
}

// SetAssetSetCount records the current size of the asset-set collection
func (m *Metrics) SetAssetSetCount(n int) {
	m.assetSets.Set(float64(n))
}

// FeedOpened records a new live feed connection
func (m *Metrics) FeedOpened(collection string) {
	m.liveFeeds.WithLabelValues(collection).Inc()
}

// FeedClosed records a closed live feed connection
func (m *Metrics) FeedClosed(collection string) {
	m.liveFeeds.WithLabelValues(collection).Dec()
}

// Middleware returns a Chi middleware that collects metrics
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create a response writer that captures the status code
			rw := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

			// Process the request
			next.ServeHTTP(rw, r)

			// Get the path (use Chi's route pattern if available)
			path := r.URL.Path
			if chiCtx := chi.RouteContext(r.Context()); chiCtx != nil && len(chiCtx.RoutePatterns) > 0 {
				path = chiCtx.RoutePatterns[len(chiCtx.RoutePatterns)-1]
			}

			// Record metrics
			status := http.StatusText(rw.code)
			m.reqTotal.WithLabelValues(r.Method, path, status).Inc()
			m.reqLatency.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler returns an http.Handler that serves Prometheus metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the HTTP status code for metrics
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	return sr.ResponseWriter.Write(b)
}

// Hijack forwards to the wrapped writer so WebSocket upgrades work
// through the logging and metrics middlewares.
func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := sr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying ResponseWriter does not support hijacking")
	}
	return h.Hijack()
}
