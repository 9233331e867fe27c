package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.Callback()
	m.Callback()
	m.CallbackFault()
	m.StatusWarning()
	m.SnapshotPublished()
	m.RenderTick(true)
	m.RenderTick(false)
	m.StreamStart(nil)
	m.StreamStart(errors.New("busy"))
	m.EngineState(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.callbacksTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callbackFaultsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusWarnings))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotsPublished))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.renderTicks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renderStaleTicks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streamStarts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streamStarts.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.engineState))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Callback()
		m.CallbackFault()
		m.StatusWarning()
		m.SnapshotPublished()
		m.RecorderDropped()
		m.StreamStart(nil)
		m.EngineState(0)
		m.RenderTick(false)
		m.RenderError()
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.CallbackFault()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "visualizer_callback_faults_total 1")
}

func TestCallbackZeroAllocs(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	allocs := testing.AllocsPerRun(100, func() {
		m.Callback()
		m.SnapshotPublished()
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations on callback counters, got %.1f", allocs)
	}
}
