// Package metrics exposes Prometheus collectors for list activity and HTTP
// traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the server reports.
type Metrics struct {
	ListViews         prometheus.Counter
	ListViewDedupes   prometheus.Counter
	Mutations         *prometheus.CounterVec
	AuditFailures     prometheus.Counter
	AccessDenials     *prometheus.CounterVec
	InvitationsFailed prometheus.Counter

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		ListViews: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "listkeep_list_views_total",
			Help: "Shared list fetches that incremented the view count.",
		}),
		ListViewDedupes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "listkeep_list_view_dedupes_total",
			Help: "Shared list fetches suppressed by the de-duplication window.",
		}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listkeep_list_mutations_total",
			Help: "Accepted list mutations by history action.",
		}, []string{"action"}),
		AuditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "listkeep_audit_append_failures_total",
			Help: "History records that could not be written after a successful mutation.",
		}),
		AccessDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listkeep_access_denials_total",
			Help: "Denied list accesses by reason.",
		}, []string{"reason"}),
		InvitationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "listkeep_invitation_notify_failures_total",
			Help: "Invitation notifications that could not be delivered.",
		}),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		gatherer: reg,
	}

	reg.MustRegister(
		m.ListViews, m.ListViewDedupes, m.Mutations, m.AuditFailures, m.AccessDenials, m.InvitationsFailed,
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Instrument records in-flight requests, counts and latency per route.
// The route label is chi's pattern (e.g. /api/v1/lists/{token}), so share
// tokens never become label values.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := strconv.Itoa(sw.code)

		m.httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code        int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.code = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
