package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums every series of a gathered counter family matching labels
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue series
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestBootstrapMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBootstrapMetrics(reg)

	m.RecordDraws(10, 4, 1)
	m.RecordDraws(2, 0, 0)
	m.RecordTasks("statistics", 11, 1)
	m.RecordShortfall("statistics", 3)
	m.RecordShortfall("statistics", 0)
	m.ObservePass("statistics", 250*time.Millisecond)

	assert.Equal(t, 12.0, counterValue(t, reg, "gorelia_bootstrap_draws_total", map[string]string{"outcome": DrawAccepted}))
	assert.Equal(t, 4.0, counterValue(t, reg, "gorelia_bootstrap_draws_total", map[string]string{"outcome": DrawRetried}))
	assert.Equal(t, 1.0, counterValue(t, reg, "gorelia_bootstrap_draws_total", map[string]string{"outcome": DrawAbandoned}))
	assert.Equal(t, 1.0, counterValue(t, reg, "gorelia_bootstrap_tasks_total", map[string]string{"kind": "statistics", "outcome": TaskFailed}))
	assert.Equal(t, 3.0, counterValue(t, reg, "gorelia_bootstrap_shortfall_total", nil))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *BootstrapMetrics
	assert.NotPanics(t, func() {
		m.RecordDraws(1, 1, 1)
		m.RecordTasks("parameters", 1, 0)
		m.ObservePass("parameters", time.Second)
		m.RecordShortfall("parameters", 2)
	})
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewBootstrapMetrics(reg)
	assert.Panics(t, func() { NewBootstrapMetrics(reg) })
}
