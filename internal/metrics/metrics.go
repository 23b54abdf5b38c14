// Package metrics holds the Prometheus collectors shared by the client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing,
// which keeps tests free of registry plumbing.
type Metrics struct {
	APIRequests    *prometheus.CounterVec
	APIDuration    *prometheus.HistogramVec
	RouteRenders   *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
	registry       *prometheus.Registry
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billed",
			Name:      "api_requests_total",
			Help:      "Backend API calls by method and HTTP status.",
		}, []string{"method", "status"}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "billed",
			Name:      "api_request_duration_seconds",
			Help:      "Backend API call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RouteRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billed",
			Name:      "route_renders_total",
			Help:      "Route transitions by route and outcome (ok, error, stale).",
		}, []string{"route", "outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "billed",
			Name:      "http_requests_total",
			Help:      "Browser requests served, by method and status code.",
		}, []string{"method", "code"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "billed",
			Name:      "active_sessions",
			Help:      "Browser sessions currently held in memory.",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.APIRequests,
		m.APIDuration,
		m.RouteRenders,
		m.HTTPRequests,
		m.ActiveSessions,
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveAPI records one backend call.
func (m *Metrics) ObserveAPI(method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(method, status).Inc()
	m.APIDuration.WithLabelValues(method).Observe(seconds)
}

// ObserveRoute records the outcome of a route transition.
func (m *Metrics) ObserveRoute(route, outcome string) {
	if m == nil {
		return
	}
	m.RouteRenders.WithLabelValues(route, outcome).Inc()
}

// ObserveHTTP records one served browser request.
func (m *Metrics) ObserveHTTP(method, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, code).Inc()
}

// SetActiveSessions publishes the number of live browser sessions.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}
