// Package telemetry exposes Prometheus metrics for pipeline runs. Runs are
// short-lived batch jobs, so instead of serving a scrape endpoint the
// metrics are dumped in text exposition format at the end of a run
// (node_exporter textfile-collector convention).
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stepflow-io/stepflow/pkg/domain"
)

// Metrics holds all Prometheus metrics for a pipeline run.
type Metrics struct {
	stepsTotal   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	gatesTotal   *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics instance with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stepflow_steps_total",
				Help: "Total number of executed steps by final status",
			},
			[]string{"status"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stepflow_step_duration_seconds",
				Help:    "Wall-clock duration of individual steps",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"step"},
		),
		gatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stepflow_gate_evaluations_total",
				Help: "Total number of gate report evaluations by result",
			},
			[]string{"result"},
		),
		registry: registry,
	}

	registry.MustRegister(m.stepsTotal, m.stepDuration, m.gatesTotal)
	return m
}

// ObserveStep records the final status and duration of one step. Safe to
// call on a nil receiver so callers don't have to guard the disabled case.
func (m *Metrics) ObserveStep(stepID string, status domain.StepStatus, d time.Duration) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(string(status)).Inc()
	if status == domain.StepCompleted || status == domain.StepFailed {
		m.stepDuration.WithLabelValues(stepID).Observe(d.Seconds())
	}
}

// ObserveGate records the overall result of one gate report.
func (m *Metrics) ObserveGate(pass bool) {
	if m == nil {
		return
	}
	result := "fail"
	if pass {
		result = "pass"
	}
	m.gatesTotal.WithLabelValues(result).Inc()
}

// WriteTextfile dumps the registry in text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
