package transport

import (
	"github.com/rs/zerolog"

	"visualizer/internal/log"
	"visualizer/internal/render"
)

// LoggingRenderer writes a debug line for every fresh frame. It is the
// headless renderer when no network sink is configured.
type LoggingRenderer struct {
	log zerolog.Logger
}

// NewLoggingRenderer creates a new LoggingRenderer instance.
func NewLoggingRenderer() *LoggingRenderer {
	l := log.Component("transport")
	l.Info().Msg("Using logging renderer")
	return &LoggingRenderer{log: l}
}

// Render logs the frame. Stale frames are skipped.
func (lr *LoggingRenderer) Render(f render.Frame) error {
	if !f.Fresh {
		return nil
	}
	peak, at := 0.0, -1
	for i, v := range f.Bars {
		if v > peak {
			peak, at = v, i
		}
	}
	lr.log.Debug().
		Uint64("generation", f.Generation).
		Int("bars", len(f.Bars)).
		Int("peak_bar", at).
		Float64("peak", peak).
		Msg("Frame")
	return nil // Logging never fails to "send"
}

// Close is a no-op for LoggingRenderer.
func (lr *LoggingRenderer) Close() error {
	return nil
}

// Ensure LoggingRenderer satisfies the interface at compile time.
var _ Sink = (*LoggingRenderer)(nil)
