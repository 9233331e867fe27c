package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"visualizer/internal/render"
)

const (
	barGlyph   = "█"
	emptyGlyph = " "
)

// renderBars draws bars as columns of cells growing up from the bottom row,
// coloured along the frame's gradient. Columns split the width as evenly as
// whole cells allow and each is at least one cell wide.
func renderBars(f render.Frame, width, rows int) string {
	n := len(f.Bars)
	if n == 0 || rows <= 0 {
		return strings.Repeat("\n", max(rows-1, 0))
	}
	layout := render.Layout{Width: float64(max(width, n)), Height: float64(rows)}
	rects := layout.Bars(nil, f.Bars)

	grad := render.NewGradient(f.ColorStart, f.ColorEnd)
	filled := make([]string, n)
	blank := make([]string, n)
	heights := make([]int, n)
	for i, r := range rects {
		x0, x1 := int(math.Round(r.X)), int(math.Round(r.X+r.W))
		w := max(x1-x0, 1)
		c := grad.ForBar(i, n)
		filled[i] = lipgloss.NewStyle().
			Foreground(lipgloss.Color(c.Hex())).
			Render(strings.Repeat(barGlyph, w))
		blank[i] = strings.Repeat(emptyGlyph, w)
		heights[i] = int(math.Round(r.H))
	}

	var sb strings.Builder
	for r := range rows {
		level := rows - r // Cells needed for row r to be lit.
		for i := range n {
			if heights[i] >= level {
				sb.WriteString(filled[i])
			} else {
				sb.WriteString(blank[i])
			}
		}
		if r < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
