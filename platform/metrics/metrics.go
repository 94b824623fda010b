// Package metrics exposes Prometheus instrumentation for provider calls and lookups.
// A nil *Metrics is valid and records nothing, so callers never guard on configuration.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prospecting"

// Metrics owns a private registry so tests can create as many instances as they need.
type Metrics struct {
	registry          *prometheus.Registry
	externalCalls     *prometheus.CounterVec
	externalDuration  *prometheus.HistogramVec
	lookupTransitions *prometheus.CounterVec
}

// New registers the application collectors plus Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		externalCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_calls_total",
			Help:      "Provider calls by service and outcome (ok or error category).",
		}, []string{"service", "outcome"}),
		externalDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_call_duration_seconds",
			Help:      "Wall time of provider calls including the retry.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"service"}),
		lookupTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_transitions_total",
			Help:      "Lookup status transitions by target status.",
		}, []string{"to"}),
	}
}

// ObserveExternalCall records one Execute outcome.
func (m *Metrics) ObserveExternalCall(service, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.externalCalls.WithLabelValues(service, outcome).Inc()
	m.externalDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}

// LookupTransition counts a lookup entering status to.
func (m *Metrics) LookupTransition(to string) {
	if m == nil {
		return
	}
	m.lookupTransitions.WithLabelValues(to).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
