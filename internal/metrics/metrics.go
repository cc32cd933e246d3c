// Package metrics holds the Prometheus collectors for authentication traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRedirect = "redirect"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid_request"
	OutcomeError    = "error"
)

// Metrics holds the service's Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	AuthAttemptsTotal *prometheus.CounterVec
	AuthDuration      *prometheus.HistogramVec
	HTTPRequestsTotal *prometheus.CounterVec
}

// New creates the metrics and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AuthAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spauth_auth_attempts_total",
				Help: "Total number of strategy operations by outcome",
			},
			[]string{"strategy", "operation", "outcome"},
		),
		AuthDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spauth_auth_duration_seconds",
				Help:    "Strategy operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy", "operation"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spauth_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
	}

	m.registry.MustRegister(
		m.AuthAttemptsTotal,
		m.AuthDuration,
		m.HTTPRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAuth records one strategy operation and its duration.
func (m *Metrics) ObserveAuth(strategy, operation, outcome string, d time.Duration) {
	m.CountAuth(strategy, operation, outcome)
	m.AuthDuration.WithLabelValues(strategy, operation).Observe(d.Seconds())
}

// CountAuth records an attempt that was refused before the strategy ran.
// The duration histogram is left untouched.
func (m *Metrics) CountAuth(strategy, operation, outcome string) {
	m.AuthAttemptsTotal.WithLabelValues(strategy, operation, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
