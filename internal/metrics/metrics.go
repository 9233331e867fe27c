// Package metrics provides Prometheus instrumentation for the capture and
// render paths. Every method is safe on a nil *Metrics so components can run
// uninstrumented in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the visualizer's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	callbacksTotal      prometheus.Counter
	callbackFaultsTotal prometheus.Counter
	statusWarnings      prometheus.Counter
	snapshotsPublished  prometheus.Counter
	recorderDropped     prometheus.Counter
	streamStarts        *prometheus.CounterVec
	engineState         prometheus.Gauge

	renderTicks      prometheus.Counter
	renderStaleTicks prometheus.Counter
	renderErrors     prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() (*Metrics, error) {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates the collectors and registers them on registry.
func NewWithRegistry(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: registry,
		callbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "visualizer_callbacks_total",
			Help: "Total number of audio blocks delivered to the capture callback",
		}),
		callbackFaultsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "visualizer_callback_faults_total",
			Help: "Total number of capture callbacks that failed and skipped publishing",
		}),
		statusWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "visualizer_backend_status_warnings_total",
			Help: "Total number of callbacks carrying non-zero backend status flags",
		}),
		snapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "visualizer_snapshots_published_total",
			Help: "Total number of spectrum snapshots published to the render side",
		}),
		recorderDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "visualizer_recorder_dropped_blocks_total",
			Help: "Total number of audio blocks the WAV tap could not accept",
		}),
		streamStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visualizer_stream_starts_total",
			Help: "Total number of capture stream start attempts",
		}, []string{"result"}), // result: success, error
		engineState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "visualizer_engine_state",
			Help: "Current engine state (0=idle, 1=starting, 2=running, 3=stopping)",
		}),
		renderTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "visualizer_render_ticks_total",
			Help: "Total number of render clock ticks",
		}),
		renderStaleTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "visualizer_render_stale_ticks_total",
			Help: "Total number of render ticks that redrew an unchanged snapshot",
		}),
		renderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "visualizer_render_errors_total",
			Help: "Total number of renderer invocations that returned an error",
		}),
	}

	collectors := []prometheus.Collector{
		m.callbacksTotal, m.callbackFaultsTotal, m.statusWarnings,
		m.snapshotsPublished, m.recorderDropped, m.streamStarts,
		m.engineState, m.renderTicks, m.renderStaleTicks, m.renderErrors,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Callback() {
	if m != nil {
		m.callbacksTotal.Inc()
	}
}

func (m *Metrics) CallbackFault() {
	if m != nil {
		m.callbackFaultsTotal.Inc()
	}
}

func (m *Metrics) StatusWarning() {
	if m != nil {
		m.statusWarnings.Inc()
	}
}

func (m *Metrics) SnapshotPublished() {
	if m != nil {
		m.snapshotsPublished.Inc()
	}
}

func (m *Metrics) RecorderDropped() {
	if m != nil {
		m.recorderDropped.Inc()
	}
}

// StreamStart records the outcome of a start attempt.
func (m *Metrics) StreamStart(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.streamStarts.WithLabelValues("error").Inc()
		return
	}
	m.streamStarts.WithLabelValues("success").Inc()
}

func (m *Metrics) EngineState(state int) {
	if m != nil {
		m.engineState.Set(float64(state))
	}
}

// RenderTick records one clock tick; fresh is false when the snapshot
// generation did not change since the previous tick.
func (m *Metrics) RenderTick(fresh bool) {
	if m == nil {
		return
	}
	m.renderTicks.Inc()
	if !fresh {
		m.renderStaleTicks.Inc()
	}
}

func (m *Metrics) RenderError() {
	if m != nil {
		m.renderErrors.Inc()
	}
}
