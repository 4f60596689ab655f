// Package metrics exposes Prometheus instrumentation for the HTTP
// server and the approval workflow.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	applicationsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leave_applications_submitted_total",
		Help: "Leave applications accepted for review.",
	})

	applicationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leave_application_decisions_total",
			Help: "Approval workflow decisions by resulting status.",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to
// call more than once; only the first call registers.
func Init() {
	registerOnce.Do(register)
}

func register() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		applicationsSubmitted,
		applicationDecisions,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func ApplicationSubmitted() {
	applicationsSubmitted.Inc()
}

func ApplicationDecided(status string) {
	applicationDecisions.WithLabelValues(status).Inc()
}

// Instrument records request counts, latency, and in-flight gauge.
// The chi route pattern keeps label cardinality bounded; requests
// that never match a route fall back to the raw path.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		httpInFlight.Dec()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
