package render

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"visualizer/internal/config"
)

// Rect is a bar rectangle in surface coordinates, origin top-left.
type Rect struct {
	X, Y, W, H float64
}

// Layout maps bar values onto a Width x Height surface: bars share the width
// equally and grow up from the bottom edge.
type Layout struct {
	Width, Height float64
}

// Bar returns the rectangle of bar i of n with value v. Values outside [0, 1]
// are clamped.
func (l Layout) Bar(i, n int, v float64) Rect {
	if n <= 0 {
		return Rect{}
	}
	w := l.Width / float64(n)
	h := clamp01(v) * l.Height
	return Rect{X: float64(i) * w, Y: l.Height - h, W: w, H: h}
}

// Bars fills dst with the rectangles of every bar and returns it. dst is
// grown if it is too short.
func (l Layout) Bars(dst []Rect, bars []float64) []Rect {
	if cap(dst) < len(bars) {
		dst = make([]Rect, len(bars))
	}
	dst = dst[:len(bars)]
	for i, v := range bars {
		dst[i] = l.Bar(i, len(bars), v)
	}
	return dst
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Gradient is the horizontal colour ramp from the first bar to the last.
type Gradient struct {
	start, end colorful.Color
}

// NewGradient returns the ramp between two endpoints.
func NewGradient(start, end config.RGB) Gradient {
	return Gradient{start: start.Colorful(), end: end.Colorful()}
}

// At returns the colour at position t in [0, 1].
func (g Gradient) At(t float64) config.RGB {
	r, gr, b := g.start.BlendRgb(g.end, clamp01(t)).Clamped().RGB255()
	return config.RGB{R: r, G: gr, B: b}
}

// ForBar returns the colour under the centre of bar i of n.
func (g Gradient) ForBar(i, n int) config.RGB {
	if n <= 0 {
		return g.At(0)
	}
	return g.At((float64(i) + 0.5) / float64(n))
}
