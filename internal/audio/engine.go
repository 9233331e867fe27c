// SPDX-License-Identifier: MIT
/*
Package audio owns audio capture for the visualizer:
- Device enumeration and classification (Catalog)
- The capture stream lifecycle (Engine: Idle, Starting, Running, Stopping)
- The capture callback that turns each block into bars and publishes them
- Noise gate and WAV tap recording

Thread Safety:
- Start, Stop and the recording controls run on a control goroutine and are
  serialised by the engine mutex
- The callback shares nothing with the control side except atomics, the
  spectrum cell (single writer) and the visual settings (atomic fields)
- Buffers are pre-allocated per stream; the callback does not allocate
*/
package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"visualizer/internal/analysis"
	"visualizer/internal/config"
	"visualizer/internal/log"
	"visualizer/internal/metrics"
	"visualizer/internal/spectrum"
)

// State is the engine lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// logEvery bounds how often the callback may write a log line per kind.
const logEvery = time.Second

// Options tunes the analysis performed by the capture callback.
type Options struct {
	Window        analysis.WindowFunc
	Ceiling       float64 // Raw magnitude mapped to a full bar; 0 means config.DefaultCeiling.
	GateThreshold float64 // Fraction of int16 full scale; 0 disables the gate.
	Metrics       *metrics.Metrics
	Logger        *zerolog.Logger // nil means log.Component("engine").
}

// Engine is the spectrum engine. It exclusively owns the capture stream.
type Engine struct {
	backend Backend
	catalog *Catalog
	cell    *spectrum.Cell
	visual  *config.Visual
	metrics *metrics.Metrics
	log     zerolog.Logger

	window  analysis.WindowFunc
	ceiling float64

	// Noise gate for signal conditioning.
	gateEnabled   atomic.Bool
	gateThreshold atomic.Int32 // Absolute int16 amplitude threshold (0-32767)

	faults   atomic.Uint64
	recorder atomic.Pointer[Recorder]

	mu      sync.Mutex // Serialises lifecycle operations.
	state   atomic.Int32
	session *session
}

// NewEngine returns an Idle engine that publishes into cell and reads its
// bar count and sensitivity from visual.
func NewEngine(backend Backend, cell *spectrum.Cell, visual *config.Visual, opts Options) *Engine {
	e := &Engine{
		backend: backend,
		catalog: NewCatalog(backend),
		cell:    cell,
		visual:  visual,
		metrics: opts.Metrics,
		window:  opts.Window,
		ceiling: opts.Ceiling,
	}
	if e.ceiling <= 0 {
		e.ceiling = config.DefaultCeiling
	}
	if opts.Logger != nil {
		e.log = *opts.Logger
	} else {
		e.log = log.Component("engine")
	}
	if opts.GateThreshold > 0 {
		e.SetGateThreshold(opts.GateThreshold)
		e.EnableGate()
	}
	e.metrics.EngineState(int(StateIdle))
	return e
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
	e.metrics.EngineState(int(s))
}

// Faults returns how many blocks were skipped because of a callback fault.
func (e *Engine) Faults() uint64 {
	return e.faults.Load()
}

// Config returns the stream configuration the engine is bound to while
// Running.
func (e *Engine) Config() (StreamConfig, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return StreamConfig{}, false
	}
	return e.session.cfg, true
}

// Start opens and starts a capture stream for cfg. From Running the current
// stream is stopped first. On failure the engine is Idle and the error is a
// *StreamOpenError. Start must not be called from the capture callback.
func (e *Engine) Start(cfg StreamConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		if err := e.stopLocked(); err != nil {
			e.log.Warn().Err(err).Msg("Error stopping previous stream")
		}
	}

	e.setState(StateStarting)
	sess, err := e.open(cfg)
	e.metrics.StreamStart(err)
	if err != nil {
		e.setState(StateIdle)
		return &StreamOpenError{DeviceID: cfg.Device.ID, Err: err}
	}

	e.session = sess
	e.setState(StateRunning)
	e.log.Info().
		Str("stream", cfg.String()).
		Stringer("window", sess.spectrum.Window()).
		Int("dft_size", sess.spectrum.Size()).
		Float64("bin_hz", sess.spectrum.GetFrequencyForBin(1, float64(cfg.SampleRate))).
		Msg("Capture started")
	return nil
}

func (e *Engine) open(cfg StreamConfig) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// The device must be present in a fresh enumeration.
	if _, err := e.catalog.Lookup(cfg.Device.ID); err != nil {
		return nil, err
	}

	spec, err := analysis.NewSpectrum(cfg.BlockSize, e.window)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStreamConfig, err)
	}

	sess := &session{
		engine:   e,
		cfg:      cfg,
		spectrum: spec,
		mono:     make([]float64, cfg.BlockSize),
		bars:     make([]float64, spectrum.MaxBars),
		warnLog:  e.log.Sample(&zerolog.BurstSampler{Burst: 1, Period: logEvery}),
		faultLog: e.log.Sample(&zerolog.BurstSampler{Burst: 1, Period: logEvery}),
	}

	stream, err := e.backend.OpenStream(cfg, sess.process)
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start stream: %w", err)
	}
	sess.stream = stream
	return sess, nil
}

// Stop stops and releases the stream, waits for any in-flight callback to
// return, stops recording and publishes zeroed bars. Stop is a no-op when
// Idle.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopLocked()
}

func (e *Engine) stopLocked() error {
	sess := e.session
	if sess == nil {
		return nil
	}
	e.setState(StateStopping)
	e.session = nil

	// Callbacks that start from here on return immediately.
	sess.closed.Store(true)

	var errs []error
	if err := sess.stream.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop stream: %w", err))
	}
	if err := sess.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close stream: %w", err))
	}
	sess.drain()

	if err := e.stopRecordingLocked(); err != nil {
		errs = append(errs, err)
	}

	// The writer side is quiescent, so the control goroutine may write.
	e.cell.Reset(e.visual.BarCount())

	e.setState(StateIdle)
	e.log.Info().Int("device", sess.cfg.Device.ID).Msg("Capture stopped")
	return errors.Join(errs...)
}

// Close stops the engine.
func (e *Engine) Close() error {
	return e.Stop()
}

// session is one opened stream and the buffers its callback uses.
type session struct {
	engine   *Engine
	cfg      StreamConfig
	stream   Stream
	spectrum *analysis.Spectrum

	mono []float64 // Channel 0 of the current block.
	bars []float64 // Backing array for up to spectrum.MaxBars bars.

	closed   atomic.Bool
	inflight atomic.Int32

	// Sampled per kind so a misbehaving backend cannot flood the log.
	warnLog  zerolog.Logger
	faultLog zerolog.Logger
}

// drain blocks until no callback of this session is executing. After closed
// is set no new callback does any work, so this terminates quickly.
func (s *session) drain() {
	for s.inflight.Load() > 0 {
		time.Sleep(100 * time.Microsecond)
	}
}

// process is the capture callback.
// Performance Critical:
// - Uses pre-allocated buffers only
// - No dynamic allocations in the hot path
// - Never panics or returns an error to the backend
func (s *session) process(in []int16, status StatusFlags) {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)
	if s.closed.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.fault(errCallbackPanic)
		}
	}()

	e := s.engine
	e.metrics.Callback()

	if status != 0 {
		e.metrics.StatusWarning()
		s.warnLog.Warn().Uint64("flags", uint64(status)).Msg("Backend reported stream status")
	}

	channels := s.cfg.Channels
	if len(in) != s.cfg.BlockSize*channels {
		s.fault(errMalformedBlock)
		return
	}

	// Channel 0 only.
	var peak int32
	for i := range s.mono {
		sample := in[i*channels]
		s.mono[i] = float64(sample)
		peak = absPeak(peak, sample)
	}

	if r := e.recorder.Load(); r != nil {
		r.Write(in)
	}

	n := e.visual.BarCount()
	if n > spectrum.MaxBars {
		n = spectrum.MaxBars
	}
	if n < 0 {
		n = 0
	}
	bars := s.bars[:n]

	if e.gateOpen(peak) {
		mags, err := s.spectrum.Magnitudes(s.mono)
		if err != nil {
			s.fault(errMalformedBlock)
			return
		}
		analysis.Bars(bars, mags, e.visual.Sensitivity(), e.ceiling)
	} else {
		clear(bars)
	}

	e.cell.Publish(bars)
	e.metrics.SnapshotPublished()
}

// fault records a skipped block. The previous snapshot stays published.
func (s *session) fault(err error) {
	e := s.engine
	e.faults.Add(1)
	e.metrics.CallbackFault()
	s.faultLog.Error().Err(err).Uint64("faults", e.faults.Load()).Msg("Capture callback fault, block skipped")
}
