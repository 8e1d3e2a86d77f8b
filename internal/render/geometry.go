// Package render turns segmented metric series into terminal chart
// output. It carries the shared frame scheduler, the two chart backends,
// hover resolution, and the density heatmap.
package render

import (
	"math"

	"github.com/sightlinehq/sightline/internal/timeseries"
)

// YMode selects the vertical scale.
type YMode int

const (
	// YModePercent uses a fixed [0,100] scale with value clamping.
	YModePercent YMode = iota
	// YModeAuto uses [0, max(observed)] recomputed per window.
	YModeAuto
)

// Geometry describes a chart's plotting area and scales. Both backends
// consume the same geometry, so a point lands at the same cell
// coordinates no matter which backend draws it.
type Geometry struct {
	Width  int // columns
	Height int // rows
	Window timeseries.Window
	YMode  YMode
	YMax   float64 // observed max for YModeAuto; ignored for percent
}

// X maps a timestamp to a fractional column in [0, Width).
func (g Geometry) X(timestampMs int64) float64 {
	if g.Window.RangeMs <= 0 || g.Width <= 0 {
		return 0
	}
	frac := float64(timestampMs-g.Window.StartMs) / float64(g.Window.RangeMs)
	x := frac * float64(g.Width)
	return math.Min(math.Max(x, 0), float64(g.Width)-1e-9)
}

// YNorm maps a value to [0,1] where 1 is the top of the chart.
func (g Geometry) YNorm(value float64) float64 {
	var norm float64
	switch g.YMode {
	case YModePercent:
		norm = value / 100
	case YModeAuto:
		if g.YMax > 0 {
			norm = value / g.YMax
		}
	}
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	return norm
}

// TimestampAt inverts the time scale for a column, returning the
// timestamp at the column's center. Used by hover resolution.
func (g Geometry) TimestampAt(col int) int64 {
	if g.Width <= 0 {
		return g.Window.StartMs
	}
	frac := (float64(col) + 0.5) / float64(g.Width)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return g.Window.StartMs + int64(frac*float64(g.Window.RangeMs))
}

// YRow maps a value to a fractional row (0 = top row).
func (g Geometry) YRow(value float64) float64 {
	return (1 - g.YNorm(value)) * float64(g.Height)
}

// sampleColumns rasterizes a series' segments onto a horizontal grid of
// resolution columns, linearly interpolating within each segment and
// leaving NaN where no segment covers a column. Both backends share this
// step; they differ only in per-cell dot resolution.
func sampleColumns(segments []timeseries.Segment, g Geometry, resolution int) []float64 {
	samples := make([]float64, resolution)
	for i := range samples {
		samples[i] = math.NaN()
	}
	if resolution <= 0 || g.Width <= 0 {
		return samples
	}

	scale := float64(resolution) / float64(g.Width)
	for _, seg := range segments {
		pts := seg.Points
		for i := 1; i < len(pts); i++ {
			x0 := g.X(pts[i-1].TimestampMs) * scale
			x1 := g.X(pts[i].TimestampMs) * scale
			c0 := int(x0)
			c1 := int(x1)
			if c1 >= resolution {
				c1 = resolution - 1
			}
			for c := c0; c <= c1; c++ {
				var v float64
				if x1 > x0 {
					t := (float64(c) - x0) / (x1 - x0)
					if t < 0 {
						t = 0
					}
					if t > 1 {
						t = 1
					}
					v = pts[i-1].Value + t*(pts[i].Value-pts[i-1].Value)
				} else {
					v = pts[i].Value
				}
				samples[c] = v
			}
		}
		// A zero- or one-point segment never reaches here: the
		// segmenter expands singletons to two points.
	}
	return samples
}
