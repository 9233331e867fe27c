// Package audiotest provides an in-memory audio.Backend. Tests deliver
// blocks to the opened stream's callback by hand.
package audiotest

import (
	"errors"
	"sync"

	"visualizer/internal/audio"
)

// ErrStreamClosed is returned by Deliver on a stream that is not started.
var ErrStreamClosed = errors.New("stream is not running")

// Backend is a fake audio host. Set the exported fields before use; they
// are read under the backend lock.
type Backend struct {
	mu      sync.Mutex
	devices []audio.Device
	streams []*Stream

	EnumErr  error // Returned by Devices
	OpenErr  error // Returned by OpenStream
	StartErr error // Returned by Stream.Start
}

var _ audio.Backend = (*Backend)(nil)

// NewBackend returns a backend listing devices.
func NewBackend(devices ...audio.Device) *Backend {
	return &Backend{devices: devices}
}

// SetDevices replaces the device list, as if devices were plugged or
// unplugged.
func (b *Backend) SetDevices(devices ...audio.Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices = devices
}

func (b *Backend) Devices() ([]audio.Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.EnumErr != nil {
		return nil, b.EnumErr
	}
	return append([]audio.Device(nil), b.devices...), nil
}

func (b *Backend) OpenStream(cfg audio.StreamConfig, cb audio.Callback) (audio.Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	s := &Stream{cfg: cfg, cb: cb, startErr: b.StartErr}
	b.streams = append(b.streams, s)
	return s, nil
}

// Streams returns every stream opened so far, in order.
func (b *Backend) Streams() []*Stream {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Stream(nil), b.streams...)
}

// Last returns the most recently opened stream, or nil.
func (b *Backend) Last() *Stream {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.streams) == 0 {
		return nil
	}
	return b.streams[len(b.streams)-1]
}

// ActiveStreams returns the streams that are started and not stopped.
func (b *Backend) ActiveStreams() []*Stream {
	var active []*Stream
	for _, s := range b.Streams() {
		if s.Running() {
			active = append(active, s)
		}
	}
	return active
}

// Stream is a fake capture stream. Like PortAudio, Stop waits for a
// callback in progress to return.
type Stream struct {
	mu       sync.Mutex
	cfg      audio.StreamConfig
	cb       audio.Callback
	startErr error
	running  bool
	closed   bool
}

// Config returns the configuration the stream was opened with.
func (s *Stream) Config() audio.StreamConfig { return s.cfg }

func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	s.running = true
	return nil
}

func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.closed = true
	return nil
}

// Running reports whether the stream is started.
func (s *Stream) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Closed reports whether Close was called.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Deliver runs the callback with one block on the calling goroutine.
func (s *Stream) Deliver(block []int16, status audio.StatusFlags) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrStreamClosed
	}
	s.cb(block, status)
	return nil
}

// Invoke runs the callback regardless of the stream state, like a backend
// that fires one last callback while stopping.
func (s *Stream) Invoke(block []int16, status audio.StatusFlags) {
	s.cb(block, status)
}
