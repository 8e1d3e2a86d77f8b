package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille rendering: each cell is a 2x4 dot matrix. Unicode braille
// starts at U+2800 and encodes dots as bits:
// bit 0 = dot 1, bit 1 = dot 2, bit 2 = dot 3, bit 3 = dot 4,
// bit 4 = dot 5, bit 5 = dot 6, bit 6 = dot 7, bit 7 = dot 8.
const brailleBase = '⠀'

// brailleDots maps sub-row (0-3, top to bottom) and sub-column (0-1) to
// the bit offset for that dot.
var brailleDots = [4][2]uint8{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

type brailleBackend struct{}

func (b *brailleBackend) Kind() BackendKind { return BackendBraille }

// Render plots every series onto a shared braille grid, the active
// series last so it owns contested cells. Per-cell color follows the
// series that most recently wrote the cell.
func (b *brailleBackend) Render(in ChartInput) string {
	g := in.Geometry
	if g.Width <= 0 || g.Height <= 0 {
		return ""
	}

	dotsX := g.Width * 2
	dotsY := g.Height * 4

	grid := make([][]rune, g.Height)
	colors := make([][]lipgloss.Style, g.Height)
	for r := range grid {
		grid[r] = make([]rune, g.Width)
		colors[r] = make([]lipgloss.Style, g.Width)
		for c := range grid[r] {
			grid[r][c] = brailleBase
		}
	}

	for _, idx := range drawOrder(in) {
		s := in.Series[idx]
		token, dimmed := seriesStroke(in, idx)
		style := strokeStyle(token, idx, dimmed, idx == in.ActiveIndex)

		samples := sampleColumns(s.Segments, g, dotsX)
		for dx, v := range samples {
			if math.IsNaN(v) {
				continue
			}
			dy := int((1 - g.YNorm(v)) * float64(dotsY))
			if dy >= dotsY {
				dy = dotsY - 1
			}
			if dy < 0 {
				dy = 0
			}

			row := dy / 4
			col := dx / 2
			bit := brailleDots[dy%4][dx%2]
			grid[row][col] |= rune(1 << bit)
			colors[row][col] = style

			// Active series doubles the stroke by setting the dot
			// below as well, the terminal analog of a wider line.
			if idx == in.ActiveIndex && dy+1 < dotsY {
				row2 := (dy + 1) / 4
				bit2 := brailleDots[(dy+1)%4][dx%2]
				grid[row2][col] |= rune(1 << bit2)
				colors[row2][col] = style
			}
		}
	}

	var lines []string
	for r := 0; r < g.Height; r++ {
		var sb strings.Builder
		for c := 0; c < g.Width; c++ {
			ch := string(grid[r][c])
			if grid[r][c] == brailleBase {
				sb.WriteString(ch)
				continue
			}
			sb.WriteString(colors[r][c].Render(ch))
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}

// strokeStyle builds the lipgloss style for one series stroke under the
// current emphasis state.
func strokeStyle(token string, idx int, dimmed, active bool) lipgloss.Style {
	if dimmed {
		return lipgloss.NewStyle().Foreground(ColorDimmed)
	}
	style := lipgloss.NewStyle().Foreground(SeriesColor(token, idx))
	if active {
		style = style.Bold(true)
	}
	return style
}
