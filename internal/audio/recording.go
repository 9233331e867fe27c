package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"visualizer/internal/metrics"
)

const (
	recordingBitDepth = 16
	recorderPoolSize  = 32 // Blocks in flight between callback and writer.
)

// Recorder taps the captured blocks into a 16-bit PCM WAV file. Write is
// called from the capture callback and never blocks: it copies the block
// into a pooled buffer and hands it to a writer goroutine, or drops it when
// the pool is exhausted.
type Recorder struct {
	path    string
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer // Reusable buffer for format conversion
	metrics *metrics.Metrics

	free  chan []int16
	queue chan []int16
	done  chan struct{}

	closed  atomic.Bool
	writers atomic.Int32
	dropped atomic.Uint64
	written atomic.Uint64

	once     sync.Once
	closeErr error
	writeErr error // Owned by the writer goroutine until done is closed.
}

// NewRecorder creates path and starts the writer goroutine.
func NewRecorder(path string, cfg StreamConfig, m *metrics.Metrics) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create recording directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}

	blockLen := cfg.BlockSize * cfg.Channels
	r := &Recorder{
		path:    path,
		file:    file,
		encoder: wav.NewEncoder(file, cfg.SampleRate, recordingBitDepth, cfg.Channels, 1),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: cfg.Channels,
				SampleRate:  cfg.SampleRate,
			},
			Data:           make([]int, blockLen),
			SourceBitDepth: recordingBitDepth,
		},
		metrics: m,
		free:    make(chan []int16, recorderPoolSize),
		queue:   make(chan []int16, recorderPoolSize),
		done:    make(chan struct{}),
	}
	for range recorderPoolSize {
		r.free <- make([]int16, blockLen)
	}

	go r.run()
	return r, nil
}

// Path returns the file being written.
func (r *Recorder) Path() string { return r.path }

// Dropped returns how many blocks were discarded because the writer fell
// behind.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Written returns how many blocks reached the encoder.
func (r *Recorder) Written() uint64 { return r.written.Load() }

// Write queues a copy of block. It reports false if the block was dropped.
func (r *Recorder) Write(block []int16) bool {
	r.writers.Add(1)
	defer r.writers.Add(-1)
	if r.closed.Load() {
		return false
	}

	select {
	case b := <-r.free:
		b = b[:cap(b)]
		n := copy(b, block)
		// queue has room for every pooled buffer, so this never blocks.
		r.queue <- b[:n]
		return true
	default:
		r.dropped.Add(1)
		r.metrics.RecorderDropped()
		return false
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for b := range r.queue {
		r.buf.Data = r.buf.Data[:len(b)]
		for i, sample := range b {
			r.buf.Data[i] = int(sample)
		}
		if err := r.encoder.Write(r.buf); err != nil && r.writeErr == nil {
			r.writeErr = fmt.Errorf("error writing to WAV file: %w", err)
		} else if err == nil {
			r.written.Add(1)
		}
		r.free <- b
	}
}

// Close stops accepting blocks, flushes the queue and finalises the WAV
// header. It is safe to call more than once.
func (r *Recorder) Close() error {
	r.once.Do(func() {
		r.closed.Store(true)
		for r.writers.Load() > 0 {
			time.Sleep(100 * time.Microsecond)
		}
		close(r.queue)
		<-r.done

		errs := []error{r.writeErr}
		if err := r.encoder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to finalise WAV file: %w", err))
		}
		if err := r.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close recording file: %w", err))
		}
		r.closeErr = errors.Join(errs...)
	})
	return r.closeErr
}

// StartRecording taps the running stream into a WAV file at path.
func (e *Engine) StartRecording(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return ErrNotRunning
	}
	if e.recorder.Load() != nil {
		return ErrAlreadyRecording
	}

	r, err := NewRecorder(path, e.session.cfg, e.metrics)
	if err != nil {
		return err
	}
	e.recorder.Store(r)
	e.log.Info().Str("file", path).Msg("Recording started")
	return nil
}

// StopRecording finalises the current recording, if any.
func (e *Engine) StopRecording() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopRecordingLocked()
}

// Recording reports whether a WAV tap is active.
func (e *Engine) Recording() bool {
	return e.recorder.Load() != nil
}

func (e *Engine) stopRecordingLocked() error {
	r := e.recorder.Swap(nil)
	if r == nil {
		return nil
	}
	// A callback may still hold r; Close waits for it.
	err := r.Close()
	e.log.Info().
		Str("file", r.Path()).
		Uint64("blocks", r.Written()).
		Uint64("dropped", r.Dropped()).
		Msg("Recording stopped")
	return err
}
