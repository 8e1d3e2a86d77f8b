package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// blockLevels are the 8 partial-block characters, lowest to highest.
var blockLevels = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

type blockBackend struct{}

func (b *blockBackend) Kind() BackendKind { return BackendBlock }

// Render draws each series as one block character per column, placed in
// the row its value falls into, with the in-cell level picked from the
// 8-step blocks. Same geometry as the braille backend, one sample per
// column instead of two.
func (b *blockBackend) Render(in ChartInput) string {
	g := in.Geometry
	if g.Width <= 0 || g.Height <= 0 {
		return ""
	}

	type cell struct {
		ch    rune
		style lipgloss.Style
		set   bool
	}
	grid := make([][]cell, g.Height)
	for r := range grid {
		grid[r] = make([]cell, g.Width)
	}

	for _, idx := range drawOrder(in) {
		s := in.Series[idx]
		token, dimmed := seriesStroke(in, idx)
		style := strokeStyle(token, idx, dimmed, idx == in.ActiveIndex)

		samples := sampleColumns(s.Segments, g, g.Width)
		for col, v := range samples {
			if math.IsNaN(v) {
				continue
			}
			// Same row mapping as the braille backend, so a point
			// lands in the same cell under either backend.
			rowf := g.YRow(v)
			row := int(rowf)
			if row >= g.Height {
				row = g.Height - 1
			}
			if row < 0 {
				row = 0
			}
			// Level within the cell, measured from the cell bottom.
			frac := 1 - (rowf - float64(row))
			level := int(frac * float64(len(blockLevels)))
			if level >= len(blockLevels) {
				level = len(blockLevels) - 1
			}
			if level < 0 {
				level = 0
			}
			grid[row][col] = cell{
				ch:    blockLevels[level],
				style: style,
				set:   true,
			}
		}
	}

	var lines []string
	for r := 0; r < g.Height; r++ {
		var sb strings.Builder
		for c := 0; c < g.Width; c++ {
			if !grid[r][c].set {
				sb.WriteRune(' ')
				continue
			}
			sb.WriteString(grid[r][c].style.Render(string(grid[r][c].ch)))
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}
