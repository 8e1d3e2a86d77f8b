package render

import (
	"math"
	"sort"

	"github.com/sightlinehq/sightline/internal/timeseries"
)

// TooltipRow is one series' entry in a hover tooltip.
type TooltipRow struct {
	SeriesIndex int
	Name        string
	Color       string
	Point       timeseries.Point
	DistanceMs  int64
}

// HoverState is the transient result of resolving a cursor position.
// FocusedIndex is the single proximity-matched series, or -1 when the
// tooltip lists multiple series. More counts rows trimmed by the cap.
type HoverState struct {
	TimestampMs  int64
	Rows         []TooltipRow
	More         int
	FocusedIndex int
	CursorCol    int
	CursorRow    int
}

// Resolver maps a cursor position back to nearest data points.
type Resolver struct {
	// ProximityRows enables focused-series tracking: a series whose
	// point lands within this many rows of the cursor becomes the sole
	// tooltip subject. Zero disables proximity focus.
	ProximityRows float64
	// MaxRows caps the tooltip; extra series collapse into "+N more".
	MaxRows int
}

// Resolve computes hover state for a cursor cell, or nil when no series
// has points in the window. Per-series nearest lookup is a binary search
// over the sorted point list.
func (r Resolver) Resolve(col, row int, in ChartInput) *HoverState {
	g := in.Geometry
	target := g.TimestampAt(col)

	state := &HoverState{
		TimestampMs:  target,
		FocusedIndex: -1,
		CursorCol:    col,
		CursorRow:    row,
	}

	bestDist := math.MaxFloat64
	var rows []TooltipRow
	for i, s := range in.Series {
		points := segmentPoints(s.Segments)
		if len(points) == 0 {
			continue
		}
		p, _ := NearestPoint(points, target)
		dist := p.TimestampMs - target
		if dist < 0 {
			dist = -dist
		}
		rows = append(rows, TooltipRow{
			SeriesIndex: i,
			Name:        s.Name,
			Color:       s.Color,
			Point:       p,
			DistanceMs:  dist,
		})

		if r.ProximityRows > 0 {
			dy := math.Abs(g.YRow(p.Value) - (float64(row) + 0.5))
			if dy <= r.ProximityRows && dy < bestDist {
				bestDist = dy
				state.FocusedIndex = i
			}
		}
	}
	if len(rows) == 0 {
		return nil
	}

	if state.FocusedIndex >= 0 {
		// Single-series tooltip for the proximity-focused series.
		for _, tr := range rows {
			if tr.SeriesIndex == state.FocusedIndex {
				state.Rows = []TooltipRow{tr}
				break
			}
		}
		return state
	}

	// Multi-series tooltip: top rows by value, capped.
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].Point.Value > rows[b].Point.Value
	})
	if r.MaxRows > 0 && len(rows) > r.MaxRows {
		state.More = len(rows) - r.MaxRows
		rows = rows[:r.MaxRows]
	}
	state.Rows = rows
	return state
}

// NearestPoint binary-searches sorted points for the one closest to
// target, returning the point and its index.
func NearestPoint(points []timeseries.Point, targetMs int64) (timeseries.Point, int) {
	idx := sort.Search(len(points), func(i int) bool {
		return points[i].TimestampMs >= targetMs
	})
	if idx == 0 {
		return points[0], 0
	}
	if idx == len(points) {
		return points[len(points)-1], len(points) - 1
	}
	before := points[idx-1]
	after := points[idx]
	if targetMs-before.TimestampMs <= after.TimestampMs-targetMs {
		return before, idx - 1
	}
	return after, idx
}

// ToggleLock flips a click-lock on a series: clicking the locked series
// unlocks, clicking another locks it. Returns -1 when the clicked index
// is out of range.
func ToggleLock(locked, clicked, seriesCount int) int {
	if clicked < 0 || clicked >= seriesCount {
		return -1
	}
	if locked == clicked {
		return -1
	}
	return clicked
}

// ValidLock reports whether a lock index still names a series; a lock on
// a vanished series must auto-unlock.
func ValidLock(locked, seriesCount int) bool {
	return locked >= 0 && locked < seriesCount
}

// segmentPoints flattens a series' segments back to one sorted point
// run, skipping the synthetic tail point of expanded singletons.
func segmentPoints(segments []timeseries.Segment) []timeseries.Point {
	var points []timeseries.Point
	for _, seg := range segments {
		pts := seg.Points
		if seg.Synthetic && len(pts) == 2 {
			pts = pts[:1]
		}
		points = append(points, pts...)
	}
	return points
}
