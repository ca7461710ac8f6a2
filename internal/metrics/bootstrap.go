// Package metrics exposes Prometheus instrumentation for the bootstrap engine
// and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Draw outcomes
const (
	DrawAccepted  = "accepted"
	DrawRetried   = "retry"
	DrawAbandoned = "abandoned"
)

// Task outcomes
const (
	TaskOK     = "ok"
	TaskFailed = "failed"
)

// BootstrapMetrics holds the engine's collectors. A nil *BootstrapMetrics is
// valid and records nothing.
type BootstrapMetrics struct {
	Draws        *prometheus.CounterVec   // resample draw attempts by outcome
	Tasks        *prometheus.CounterVec   // fit/score tasks by run kind and outcome
	PassDuration *prometheus.HistogramVec // seconds per generation pass
	Shortfall    *prometheus.CounterVec   // trials missing after the backfill pass
}

// NewBootstrapMetrics creates and registers the collectors on reg
// (the container's registry in the server, a fresh registry in tests).
func NewBootstrapMetrics(reg prometheus.Registerer) *BootstrapMetrics {
	draws := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gorelia",
		Subsystem: "bootstrap",
		Name:      "draws_total",
		Help:      "Resample draw attempts by outcome",
	}, []string{"outcome"})

	tasks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gorelia",
		Subsystem: "bootstrap",
		Name:      "tasks_total",
		Help:      "Fit and score tasks by run kind and outcome",
	}, []string{"kind", "outcome"})

	passDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gorelia",
		Subsystem: "bootstrap",
		Name:      "pass_duration_seconds",
		Help:      "Duration of one draw and fit pass",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"kind"})

	shortfall := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gorelia",
		Subsystem: "bootstrap",
		Name:      "shortfall_total",
		Help:      "Requested trials that were still missing after the backfill pass",
	}, []string{"kind"})

	reg.MustRegister(draws, tasks, passDuration, shortfall)

	return &BootstrapMetrics{
		Draws:        draws,
		Tasks:        tasks,
		PassDuration: passDuration,
		Shortfall:    shortfall,
	}
}

// RecordDraws adds accepted, retried and abandoned draw counts
func (m *BootstrapMetrics) RecordDraws(accepted, retried, abandoned int) {
	if m == nil {
		return
	}
	m.Draws.WithLabelValues(DrawAccepted).Add(float64(accepted))
	m.Draws.WithLabelValues(DrawRetried).Add(float64(retried))
	m.Draws.WithLabelValues(DrawAbandoned).Add(float64(abandoned))
}

// RecordTasks adds completed and failed task counts for a run kind
func (m *BootstrapMetrics) RecordTasks(kind string, ok, failed int) {
	if m == nil {
		return
	}
	m.Tasks.WithLabelValues(kind, TaskOK).Add(float64(ok))
	m.Tasks.WithLabelValues(kind, TaskFailed).Add(float64(failed))
}

// ObservePass records the duration of one pass
func (m *BootstrapMetrics) ObservePass(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.PassDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordShortfall adds the final number of missing trials
func (m *BootstrapMetrics) RecordShortfall(kind string, missing int) {
	if m == nil || missing <= 0 {
		return
	}
	m.Shortfall.WithLabelValues(kind).Add(float64(missing))
}
