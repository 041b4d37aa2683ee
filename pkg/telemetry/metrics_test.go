package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepflow-io/stepflow/pkg/domain"
)

func TestMetricsTextfileDump(t *testing.T) {
	m := NewMetrics()
	m.ObserveStep("collect", domain.StepCompleted, 2*time.Second)
	m.ObserveStep("parse", domain.StepFailed, time.Second)
	m.ObserveStep("render", domain.StepSkipped, 0)
	m.ObserveGate(true)
	m.ObserveGate(false)

	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "stepflow_steps_total")
	assert.Contains(t, text, `status="completed"`)
	assert.Contains(t, text, `status="skipped"`)
	assert.Contains(t, text, "stepflow_step_duration_seconds")
	assert.Contains(t, text, `stepflow_gate_evaluations_total{result="pass"} 1`)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveStep("collect", domain.StepCompleted, time.Second)
	m.ObserveGate(false)
	assert.NoError(t, m.WriteTextfile(""))
}
