// Package timeseries provides the data model and shaping algorithms for
// metric charts: point series, time windows, LTTB downsampling, and
// gap-aware segmentation.
package timeseries

import (
	"sort"
	"time"
)

// Point is a single metric sample. Timestamps are milliseconds since epoch.
type Point struct {
	TimestampMs int64
	Value       float64
}

// Series is an ordered run of points for one metric on one resource.
// ID is stable across refetches so UI focus/lock state can survive
// a data replacement.
type Series struct {
	ID     string
	Name   string
	Color  string
	Points []Point
}

// Window is an absolute time window derived from a relative range
// evaluated against the current clock. Windows are always recomputed,
// never cached, because "now" keeps advancing.
type Window struct {
	StartMs int64
	EndMs   int64
	RangeMs int64
}

// rangeDurations maps the supported relative range names to durations.
var rangeDurations = map[string]time.Duration{
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
}

// DefaultRange is used when a requested range name is unknown.
const DefaultRange = "1h"

// WindowFor evaluates a relative range name ("15m", "1h", "24h", "7d")
// against now. Unknown ranges fall back to DefaultRange.
func WindowFor(rangeName string, now time.Time) Window {
	d, ok := rangeDurations[rangeName]
	if !ok {
		d = rangeDurations[DefaultRange]
	}
	end := now.UnixMilli()
	return Window{
		StartMs: end - d.Milliseconds(),
		EndMs:   end,
		RangeMs: d.Milliseconds(),
	}
}

// ValidRange reports whether the range name is one of the supported
// relative ranges.
func ValidRange(rangeName string) bool {
	_, ok := rangeDurations[rangeName]
	return ok
}

// RangeNames returns the supported range names, shortest first.
func RangeNames() []string {
	names := make([]string, 0, len(rangeDurations))
	for name := range rangeDurations {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return rangeDurations[names[i]] < rangeDurations[names[j]]
	})
	return names
}

// Clip returns the points that fall inside the window, inclusive on both
// ends. Input must be sorted ascending by timestamp; output shares the
// input's backing array.
func Clip(points []Point, w Window) []Point {
	lo := 0
	for lo < len(points) && points[lo].TimestampMs < w.StartMs {
		lo++
	}
	hi := len(points)
	for hi > lo && points[hi-1].TimestampMs > w.EndMs {
		hi--
	}
	return points[lo:hi]
}

// MaxValue returns the largest value across all series, or 0 for empty
// input. Used for auto-ranging the Y scale.
func MaxValue(series []Series) float64 {
	var max float64
	for _, s := range series {
		for _, p := range s.Points {
			if p.Value > max {
				max = p.Value
			}
		}
	}
	return max
}
