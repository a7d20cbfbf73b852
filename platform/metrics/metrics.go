// Package metrics holds the Prometheus collectors exported by the service.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Lead engine metrics
	ActionsRecorded        *prometheus.CounterVec
	Recomputes             *prometheus.CounterVec
	RecomputeDuration      prometheus.Histogram
	TemperatureTransitions *prometheus.CounterVec
	StatusTransitions      *prometheus.CounterVec
	DecaySweepLeads        *prometheus.CounterVec
	RecomputeEnqueues      *prometheus.CounterVec

	// Cache metrics
	CacheRequests *prometheus.CounterVec
}

// New creates a Metrics instance registered on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ActionsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_actions_recorded_total",
				Help: "Interaction events appended to the action log",
			},
			[]string{"action_type"},
		),
		Recomputes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_recomputes_total",
				Help: "Derived score recomputations by result",
			},
			[]string{"result"}, // ok, not_found, error
		),
		RecomputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lead_recompute_duration_seconds",
			Help:    "Time spent recomputing a lead's derived fields",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}),
		TemperatureTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_temperature_transitions_total",
				Help: "Leads moving between temperature tiers",
			},
			[]string{"from", "to"},
		),
		StatusTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_status_transitions_total",
				Help: "Lead status changes by target status",
			},
			[]string{"to"},
		),
		DecaySweepLeads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_decay_sweep_leads_total",
				Help: "Leads visited by the recency decay sweep",
			},
			[]string{"result"}, // refreshed, unchanged, error
		),
		RecomputeEnqueues: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_recompute_enqueues_total",
				Help: "Recompute requests handed to the dispatcher",
			},
			[]string{"result"},
		),
		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_requests_total",
				Help: "Cache lookups by cache name and result",
			},
			[]string{"cache", "result"}, // hit, miss, error
		),
	}
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry (used by tests).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTP records a finished HTTP request.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ActionRecorded counts an appended action.
func (m *Metrics) ActionRecorded(actionType string) {
	if m == nil {
		return
	}
	m.ActionsRecorded.WithLabelValues(actionType).Inc()
}

// RecomputeFinished counts a recompute and its latency.
func (m *Metrics) RecomputeFinished(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Recomputes.WithLabelValues(result).Inc()
	m.RecomputeDuration.Observe(elapsed.Seconds())
}

// TemperatureChanged counts a temperature tier change.
func (m *Metrics) TemperatureChanged(from, to string) {
	if m == nil {
		return
	}
	m.TemperatureTransitions.WithLabelValues(from, to).Inc()
}

// StatusChanged counts an effective status transition.
func (m *Metrics) StatusChanged(to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(to).Inc()
}

// SweepVisited counts a lead visited by the decay sweep.
func (m *Metrics) SweepVisited(result string) {
	if m == nil {
		return
	}
	m.DecaySweepLeads.WithLabelValues(result).Inc()
}

// RecomputeEnqueued counts a recompute dispatch.
func (m *Metrics) RecomputeEnqueued(result string) {
	if m == nil {
		return
	}
	m.RecomputeEnqueues.WithLabelValues(result).Inc()
}

// CacheLookup counts a cache lookup.
func (m *Metrics) CacheLookup(cache, result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(cache, result).Inc()
}
