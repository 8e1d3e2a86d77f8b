package timeseries

import "sort"

// Segment is a maximal contiguous run of points with no internal gap
// above the inferred threshold. Synthetic marks segments whose single
// source point was expanded into two drawable points; the source series
// is never mutated.
type Segment struct {
	Points    []Point
	Synthetic bool
}

// syntheticSpanMs is the spacing used when a one-point segment is
// expanded into a drawable two-point line.
const syntheticSpanMs = 1000

// minGapFloorMs is the absolute lower bound for an inferred gap
// threshold. Metrics are never sampled faster than this in practice, so
// anything tighter would split on normal jitter.
const minGapFloorMs = 15_000

// InferGapThreshold computes the gap threshold for a series over a
// window: the 90th percentile of positive consecutive deltas, times 3,
// clamped to [max(15s, rangeMs/120), rangeMs/2]. Fewer than 3 points
// yields a threshold above the whole range so nothing splits.
//
// A fixed threshold misfires on series with irregular native sampling;
// the percentile adapts to each series' own cadence while still breaking
// on genuine outages.
func InferGapThreshold(points []Point, rangeMs int64) int64 {
	if len(points) < 3 {
		return rangeMs + 1
	}

	deltas := make([]int64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		d := points[i].TimestampMs - points[i-1].TimestampMs
		if d > 0 {
			deltas = append(deltas, d)
		}
	}
	if len(deltas) == 0 {
		return rangeMs + 1
	}

	sort.Slice(deltas, func(i, j int) bool { return deltas[i] < deltas[j] })
	idx := int(float64(len(deltas)) * 0.9)
	if idx >= len(deltas) {
		idx = len(deltas) - 1
	}
	threshold := deltas[idx] * 3

	floor := rangeMs / 120
	if floor < minGapFloorMs {
		floor = minGapFloorMs
	}
	ceil := rangeMs / 2
	if threshold < floor {
		threshold = floor
	}
	if threshold > ceil {
		threshold = ceil
	}
	return threshold
}

// SegmentGaps splits a sorted point run into segments wherever the gap
// between consecutive points exceeds thresholdMs, so lines are not drawn
// across outages.
//
// When bridgeLeadingGap is set, a first segment starting exactly at the
// window boundary is never split from its successor: the point there is
// a carried-forward last-known value, and a gap right at the edge would
// read as an outage that did not happen.
//
// Segments reduced to a single point are expanded to two colinear points
// one second apart so they stay renderable as a line.
func SegmentGaps(points []Point, thresholdMs, windowStartMs int64, bridgeLeadingGap bool) []Segment {
	if len(points) == 0 {
		return nil
	}

	var segments []Segment
	start := 0
	for i := 1; i < len(points); i++ {
		if points[i].TimestampMs-points[i-1].TimestampMs <= thresholdMs {
			continue
		}
		// Keep a window-edge anchor attached to its successor.
		if bridgeLeadingGap && start == 0 && points[0].TimestampMs == windowStartMs {
			continue
		}
		segments = append(segments, makeSegment(points[start:i]))
		start = i
	}
	segments = append(segments, makeSegment(points[start:]))
	return segments
}

func makeSegment(points []Point) Segment {
	if len(points) == 1 {
		p := points[0]
		return Segment{
			Points: []Point{
				p,
				{TimestampMs: p.TimestampMs + syntheticSpanMs, Value: p.Value},
			},
			Synthetic: true,
		}
	}
	return Segment{Points: points}
}
