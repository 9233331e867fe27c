// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
)

var (
	ErrDeviceNotFound      = errors.New("device not found")
	ErrNoInputChannels     = errors.New("device has no input channels")
	ErrInvalidStreamConfig = errors.New("invalid stream config")
	ErrNotRunning          = errors.New("engine is not running")
	ErrAlreadyRecording    = errors.New("already recording")

	// Callback faults. Pre-allocated so the callback never formats errors.
	errMalformedBlock = errors.New("malformed block")
	errCallbackPanic  = errors.New("panic in capture callback")
)

// EnumerationError reports that the backend could not list devices.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("device enumeration failed: %v", e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// StreamOpenError reports that Start could not open or start a stream. The
// engine is Idle when this is returned.
type StreamOpenError struct {
	DeviceID int
	Err      error
}

func (e *StreamOpenError) Error() string {
	return fmt.Sprintf("could not start stream on device %d: %v", e.DeviceID, e.Err)
}

func (e *StreamOpenError) Unwrap() error { return e.Err }
