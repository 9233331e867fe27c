// SPDX-License-Identifier: MIT
package audio

// StatusFlags carries the backend's per-callback status bits (overflows,
// underflows). Non-zero values are warnings, never fatal.
type StatusFlags uint64

// Callback receives one interleaved block of int16 samples. It runs on the
// backend's real-time thread and must not block.
type Callback func(in []int16, status StatusFlags)

// Stream is an opened capture stream. Stop must not return while a callback
// is still executing.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Backend is the audio host: it lists input endpoints and opens streams.
type Backend interface {
	Devices() ([]Device, error)
	OpenStream(cfg StreamConfig, cb Callback) (Stream, error)
}
