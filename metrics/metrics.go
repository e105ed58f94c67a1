// Package metrics exposes the server driver's Prometheus collectors.
// Grounded on rajivchocolate-agent-sandbox's internal/monitor.Metrics:
// a dedicated prometheus.Registry owned by one struct, registered
// collectors, and Record* helper methods rather than scattering
// WithLabelValues calls across the call sites.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for RendersTotal, matching the error kinds spec.md §7
// enumerates for a render (Ok plus everything that can terminate one).
const (
	OutcomeOk             = "ok"
	OutcomeRenderError    = "render_error"
	OutcomeTimeout        = "timeout"
	OutcomeHeapExhausted  = "heap_exhausted"
	OutcomeBootstrapError = "bootstrap_error"
)

// Metrics holds the server driver's collectors on a dedicated registry,
// so single-shot mode (which never starts a metrics listener) never
// touches the global prometheus.DefaultRegisterer.
type Metrics struct {
	Registry *prometheus.Registry

	RendersTotal   *prometheus.CounterVec
	RenderDuration prometheus.Histogram
	ColdStarts     prometheus.Counter
}

// New creates and registers the server driver's collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		RendersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ssrsandbox",
				Name:      "renders_total",
				Help:      "Total renders by outcome.",
			},
			[]string{"outcome"},
		),

		RenderDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "ssrsandbox",
				Name:      "render_duration_seconds",
				Help:      "Duration of completed renders in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
		),

		ColdStarts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ssrsandbox",
				Name:      "cold_starts_total",
				Help:      "Total number of isolate (re)constructions.",
			},
		),
	}

	reg.MustRegister(m.RendersTotal, m.RenderDuration, m.ColdStarts)
	return m
}

// RecordRender records the outcome and wall-clock duration of one render.
func (m *Metrics) RecordRender(outcome string, elapsed time.Duration) {
	m.RendersTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOk {
		m.RenderDuration.Observe(elapsed.Seconds())
	}
}

// RecordColdStart records one isolate (re)construction.
func (m *Metrics) RecordColdStart() {
	m.ColdStarts.Inc()
}
