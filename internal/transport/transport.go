// Package transport carries rendered frames out of the process: to
// websocket clients, to UDP listeners and to the log.
package transport

import (
	"errors"
	"io"

	"visualizer/internal/render"
)

// ErrClosed is returned by Render after Close.
var ErrClosed = errors.New("transport is closed")

// Sink is a renderer that owns a resource.
type Sink interface {
	render.Renderer
	io.Closer
}

// FrameMessage is the JSON form of a frame.
type FrameMessage struct {
	Generation uint64    `json:"generation"`
	Bars       []float64 `json:"bars"`
	ColorStart string    `json:"color_start"` // "#RRGGBB"
	ColorEnd   string    `json:"color_end"`
}

// NewFrameMessage copies f so the message outlives the render call.
func NewFrameMessage(f render.Frame) FrameMessage {
	return FrameMessage{
		Generation: f.Generation,
		Bars:       append(make([]float64, 0, len(f.Bars)), f.Bars...),
		ColorStart: f.ColorStart.Hex(),
		ColorEnd:   f.ColorEnd.Hex(),
	}
}
