// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/lucasb-eyer/go-colorful"
)

// NoDevice is the SelectedDevice value when no device has been chosen.
const NoDevice = -1

var (
	ErrInvalidSensitivity = errors.New("sensitivity must be a finite number greater than zero")
	ErrInvalidBarCount    = fmt.Errorf("bar count must be within [1, %d]", MaxBarCount)
)

// RGB is an 8-bit per channel colour.
type RGB struct {
	R, G, B uint8
}

// Default gradient endpoints.
var (
	DefaultColorStart = RGB{0, 255, 0}
	DefaultColorEnd   = RGB{255, 0, 0}
)

// ParseHex parses "#RRGGBB" (or the "#RGB" short form).
func ParseHex(s string) (RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB{r, g, b}, nil
}

// Hex formats the colour as "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Colorful converts the colour for blending.
func (c RGB) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func (c RGB) pack() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func unpack(v uint32) RGB {
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// Visual is the live settings record shared by the capture callback, the
// render clock and the control surface. Each field lives in its own atomic
// word: a read is a snapshot of that field only, so readers must tolerate
// fields changing between two reads.
type Visual struct {
	colorStart     atomic.Uint32
	colorEnd       atomic.Uint32
	sensitivity    atomic.Uint64 // math.Float64bits
	barCount       atomic.Int32
	selectedDevice atomic.Int64
}

// VisualSnapshot is a plain copy of every Visual field, each loaded
// independently.
type VisualSnapshot struct {
	ColorStart     RGB
	ColorEnd       RGB
	Sensitivity    float64
	BarCount       int
	SelectedDevice int
}

// NewVisual returns a Visual populated with the defaults.
func NewVisual() *Visual {
	v := &Visual{}
	v.colorStart.Store(DefaultColorStart.pack())
	v.colorEnd.Store(DefaultColorEnd.pack())
	v.sensitivity.Store(math.Float64bits(DefaultSensitivity))
	v.barCount.Store(DefaultBarCount)
	v.selectedDevice.Store(NoDevice)
	return v
}

func (v *Visual) ColorStart() RGB { return unpack(v.colorStart.Load()) }
func (v *Visual) ColorEnd() RGB   { return unpack(v.colorEnd.Load()) }

// Colors returns both gradient endpoints.
func (v *Visual) Colors() (start, end RGB) {
	return v.ColorStart(), v.ColorEnd()
}

func (v *Visual) SetColors(start, end RGB) {
	v.colorStart.Store(start.pack())
	v.colorEnd.Store(end.pack())
}

func (v *Visual) Sensitivity() float64 {
	return math.Float64frombits(v.sensitivity.Load())
}

func (v *Visual) SetSensitivity(s float64) error {
	if !(s > 0) || math.IsInf(s, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidSensitivity, s)
	}
	v.sensitivity.Store(math.Float64bits(s))
	return nil
}

func (v *Visual) BarCount() int {
	return int(v.barCount.Load())
}

func (v *Visual) SetBarCount(n int) error {
	if n < 1 || n > MaxBarCount {
		return fmt.Errorf("%w: %d", ErrInvalidBarCount, n)
	}
	v.barCount.Store(int32(n))
	return nil
}

// SelectedDevice returns the chosen backend device id or NoDevice.
func (v *Visual) SelectedDevice() int {
	return int(v.selectedDevice.Load())
}

func (v *Visual) SetSelectedDevice(id int) {
	v.selectedDevice.Store(int64(id))
}

// Snapshot loads every field. No invariant couples the fields, so the
// result is not a transaction.
func (v *Visual) Snapshot() VisualSnapshot {
	return VisualSnapshot{
		ColorStart:     v.ColorStart(),
		ColorEnd:       v.ColorEnd(),
		Sensitivity:    v.Sensitivity(),
		BarCount:       v.BarCount(),
		SelectedDevice: v.SelectedDevice(),
	}
}
