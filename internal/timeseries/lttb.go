package timeseries

// Downsample reduces points to at most budget points while preserving the
// visual shape of the line, using Largest-Triangle-Three-Buckets.
//
// The first and last input points are always kept. Input already within
// 1.5x of the budget is returned unchanged, since the savings would not
// justify the pass. Input must be sorted ascending by timestamp. The
// result is deterministic for a given input and budget.
func Downsample(points []Point, budget int) []Point {
	if budget < 3 || len(points) <= budget || float64(len(points)) <= float64(budget)*1.5 {
		return points
	}

	sampled := make([]Point, 0, budget)
	sampled = append(sampled, points[0])

	// Interior points are bucketed evenly; the endpoints own their own
	// buckets so they always survive.
	bucketSize := float64(len(points)-2) / float64(budget-2)

	prevIdx := 0
	for i := 0; i < budget-2; i++ {
		bucketStart := int(float64(i)*bucketSize) + 1
		bucketEnd := int(float64(i+1)*bucketSize) + 1
		if bucketEnd >= len(points)-1 {
			bucketEnd = len(points) - 1
		}

		// Average of the next bucket forms the third triangle vertex.
		nextStart := bucketEnd
		nextEnd := int(float64(i+2)*bucketSize) + 1
		if nextEnd >= len(points) {
			nextEnd = len(points)
		}
		avgT, avgV := bucketAverage(points[nextStart:nextEnd])

		// Pick the point in this bucket forming the largest triangle
		// with the previously selected point and the next bucket's
		// average.
		prev := points[prevIdx]
		bestIdx := bucketStart
		bestArea := -1.0
		for j := bucketStart; j < bucketEnd; j++ {
			area := triangleArea(
				float64(prev.TimestampMs), prev.Value,
				float64(points[j].TimestampMs), points[j].Value,
				avgT, avgV,
			)
			if area > bestArea {
				bestArea = area
				bestIdx = j
			}
		}

		sampled = append(sampled, points[bestIdx])
		prevIdx = bestIdx
	}

	sampled = append(sampled, points[len(points)-1])
	return sampled
}

// BudgetForWidth derives a point budget from rendered width in cells,
// roughly one point per horizontal cell with a floor that keeps tiny
// charts from degenerating.
func BudgetForWidth(width int) int {
	budget := width * 2
	if budget < 16 {
		budget = 16
	}
	return budget
}

func bucketAverage(points []Point) (avgT, avgV float64) {
	if len(points) == 0 {
		return 0, 0
	}
	for _, p := range points {
		avgT += float64(p.TimestampMs)
		avgV += p.Value
	}
	n := float64(len(points))
	return avgT / n, avgV / n
}

func triangleArea(ax, ay, bx, by, cx, cy float64) float64 {
	area := (ax-cx)*(by-ay) - (ax-bx)*(cy-ay)
	if area < 0 {
		area = -area
	}
	return area / 2
}
