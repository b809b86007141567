// Package metrics exposes Prometheus metrics for reloads, document contents
// and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/prdboard/internal/board"
	"github.com/starford/prdboard/internal/models"
)

const namespace = "prdboard"

// Metrics holds every collector on a private registry so that tests can
// create as many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	ReloadTotal     *prometheus.CounterVec
	ReloadDuration  prometheus.Histogram
	Stories         *prometheus.GaugeVec
	Features        prometheus.Gauge
	CompletionRatio prometheus.Gauge

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all metrics.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.ReloadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reload_total",
			Help:      "Document load attempts by outcome.",
		},
		[]string{"outcome"},
	)
	m.ReloadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reload_duration_seconds",
			Help:      "Time spent reading and decoding the document.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	m.Stories = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stories",
			Help:      "Stories in the current document by status.",
		},
		[]string{"status"},
	)
	m.Features = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "features",
			Help:      "Features in the current document.",
		},
	)
	m.CompletionRatio = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "completion_ratio",
			Help:      "Completed stories divided by total stories (0 when empty).",
		},
	)
	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		},
		[]string{"method", "route", "code"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.registry.MustRegister(
		m.ReloadTotal,
		m.ReloadDuration,
		m.Stories,
		m.Features,
		m.CompletionRatio,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveReload records one load attempt.
func (m *Metrics) ObserveReload(outcome string, elapsed time.Duration) {
	m.ReloadTotal.WithLabelValues(outcome).Inc()
	m.ReloadDuration.Observe(elapsed.Seconds())
}

// ObserveDocument sets the document gauges from a freshly loaded document.
func (m *Metrics) ObserveDocument(doc *models.Document) {
	counts := board.CountAll(doc)
	for _, s := range board.Statuses {
		m.Stories.WithLabelValues(string(s)).Set(float64(counts.Get(s)))
	}
	if doc != nil {
		m.Features.Set(float64(len(doc.Features)))
	} else {
		m.Features.Set(0)
	}
	m.CompletionRatio.Set(board.OverallProgress(doc).Percent() / 100)
}

// TrackClients exports count as the number of connected event-stream
// clients. It is read on every scrape.
func (m *Metrics) TrackClients(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_clients",
			Help:      "Connected event-stream clients.",
		},
		func() float64 { return float64(count()) },
	))
}

// Middleware counts requests by chi route pattern, so that path parameters
// do not create a new series per value.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
