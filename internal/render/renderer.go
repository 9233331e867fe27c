// SPDX-License-Identifier: MIT
/*
Package render drives display surfaces from the shared spectrum.

Clock reads the spectrum cell and the visual settings on a fixed period and
forwards a Frame to a Renderer. It does no analysis of its own and owns no
audio resources. Renderers draw; Layout and Gradient give them the bar
geometry and colours.
*/
package render

import (
	"errors"

	"visualizer/internal/config"
)

// Frame is what a renderer draws on one tick.
type Frame struct {
	Generation uint64
	Bars       []float64 // Values in [0, 1]. Valid only for the duration of Render.
	ColorStart config.RGB
	ColorEnd   config.RGB
	Fresh      bool // Generation changed since the previous tick.
}

// Clone returns a copy of f that owns its bars.
func (f Frame) Clone() Frame {
	f.Bars = append([]float64(nil), f.Bars...)
	return f
}

// Renderer is the display surface. Render runs on the clock goroutine and
// must not retain f.Bars after it returns.
type Renderer interface {
	Render(f Frame) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(f Frame) error

func (fn RendererFunc) Render(f Frame) error { return fn(f) }

// Multi fans a frame out to several renderers. Every renderer is called even
// when an earlier one fails.
type Multi []Renderer

func (m Multi) Render(f Frame) error {
	var errs []error
	for _, r := range m {
		if err := r.Render(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
