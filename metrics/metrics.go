// Package metrics exposes agent activity as Prometheus collectors on a
// private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cryptointel"

// Metrics holds the collectors agents update during a cycle
type Metrics struct {
	registry *prometheus.Registry

	Suggestions   *prometheus.CounterVec
	Discoveries   *prometheus.CounterVec
	Decisions     *prometheus.CounterVec
	Feedback      *prometheus.CounterVec
	Reputation    *prometheus.GaugeVec
	Threshold     *prometheus.GaugeVec
	CycleDuration prometheus.Histogram
	CycleErrors   prometheus.Counter
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_total",
			Help:      "Suggestions logged, by agent and type.",
		}, []string{"agent", "type"}),
		Discoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alpha_discoveries_total",
			Help:      "Alpha discoveries logged, by kind.",
		}, []string{"kind"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategic_decisions_total",
			Help:      "Strategic decisions, by type and regime.",
		}, []string{"decision_type", "regime"}),
		Feedback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_total",
			Help:      "Feedback recorded, by outcome.",
		}, []string{"outcome"}),
		Reputation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "agent_reputation",
			Help:      "Current reputation score per agent.",
		}, []string{"agent"}),
		Threshold: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "agent_confidence_threshold",
			Help:      "Current adaptive confidence threshold per agent.",
		}, []string{"agent"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one hunt/strategize/optimize cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		CycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_errors_total",
			Help:      "Cycles that ended with an agent error.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.Suggestions,
		m.Discoveries,
		m.Decisions,
		m.Feedback,
		m.Reputation,
		m.Threshold,
		m.CycleDuration,
		m.CycleErrors,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCycle records a finished cycle
func (m *Metrics) ObserveCycle(d time.Duration, failed bool) {
	m.CycleDuration.Observe(d.Seconds())
	if failed {
		m.CycleErrors.Inc()
	}
}
