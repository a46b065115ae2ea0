package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the chart service.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	phaseDuration  *prometheus.HistogramVec
	reshapeAborts  prometheus.Counter
	orderFallbacks prometheus.Counter
	misaligned     prometheus.Counter
}

// NewMetrics initialises the registry with HTTP and chart engine collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stackchart_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stackchart_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	phases := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stackchart_render_phase_seconds",
		Help:    "Duration of chart engine phases (reshape, layout, render, update).",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	}, []string{"phase"})
	aborts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stackchart_reshape_aborts_total",
		Help: "Data loads skipped because rows did not match the declared shape.",
	})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stackchart_order_fallbacks_total",
		Help: "Secondary orders that fell back to first-seen order after a cycle.",
	})
	misaligned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stackchart_misaligned_deltas_total",
		Help: "Delta pairs skipped because adjacent segments did not line up.",
	})
	registry.MustRegister(requests, duration, phases, aborts, fallbacks, misaligned)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		phaseDuration:   phases,
		reshapeAborts:   aborts,
		orderFallbacks:  fallbacks,
		misaligned:      misaligned,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request counts and durations.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// ObservePhase implements chart.Recorder.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// ReshapeAborted implements chart.Recorder.
func (m *Metrics) ReshapeAborted() {
	if m == nil {
		return
	}
	m.reshapeAborts.Inc()
}

// OrderFallback implements chart.Recorder.
func (m *Metrics) OrderFallback() {
	if m == nil {
		return
	}
	m.orderFallbacks.Inc()
}

// Misaligned implements chart.Recorder.
func (m *Metrics) Misaligned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.misaligned.Add(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
