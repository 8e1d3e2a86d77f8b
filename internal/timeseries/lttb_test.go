package timeseries

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeWave builds n points of a noisy sine wave starting at startMs with
// stepMs spacing.
func makeWave(n int, startMs, stepMs int64) []Point {
	points := make([]Point, n)
	for i := range points {
		t := startMs + int64(i)*stepMs
		points[i] = Point{
			TimestampMs: t,
			Value:       50 + 40*math.Sin(float64(i)/7) + 5*math.Sin(float64(i)*1.3),
		}
	}
	return points
}

func TestDownsampleBudget(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		budget int
	}{
		{name: "large input small budget", n: 5000, budget: 200},
		{name: "moderate input", n: 600, budget: 100},
		{name: "budget of three", n: 100, budget: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := makeWave(tt.n, 0, 1000)
			out := Downsample(input, tt.budget)

			assert.LessOrEqual(t, len(out), tt.budget)
			require.NotEmpty(t, out)
			assert.Equal(t, input[0], out[0], "first point must survive")
			assert.Equal(t, input[len(input)-1], out[len(out)-1], "last point must survive")
		})
	}
}

func TestDownsampleNearBudgetPassthrough(t *testing.T) {
	// Input within 1.5x of the budget is returned unchanged.
	input := makeWave(140, 0, 1000)
	out := Downsample(input, 100)
	assert.Equal(t, input, out)
}

func TestDownsampleSmallInputs(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
		budget int
	}{
		{name: "empty", points: nil, budget: 10},
		{name: "single point", points: makeWave(1, 0, 1000), budget: 10},
		{name: "two points", points: makeWave(2, 0, 1000), budget: 10},
		{name: "budget below three", points: makeWave(50, 0, 1000), budget: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Downsample(tt.points, tt.budget)
			assert.Equal(t, tt.points, out, "should pass through unchanged")
		})
	}
}

func TestDownsampleDeterministic(t *testing.T) {
	input := makeWave(2000, 0, 5000)
	first := Downsample(input, 150)
	second := Downsample(input, 150)
	assert.Equal(t, first, second)
}

func TestDownsampleIdempotent(t *testing.T) {
	input := makeWave(3000, 0, 2000)
	once := Downsample(input, 200)

	// Re-applying with the same budget is a no-op: the result is already
	// within 1.5x of the budget.
	twice := Downsample(once, 200)
	assert.Equal(t, once, twice)

	// A larger budget must also leave it alone.
	larger := Downsample(once, 400)
	assert.Equal(t, once, larger)
}

func TestDownsampleOrderPreserved(t *testing.T) {
	input := makeWave(1000, 0, 1000)
	out := Downsample(input, 80)

	for i := 1; i < len(out); i++ {
		assert.Less(t, out[i-1].TimestampMs, out[i].TimestampMs,
			"output must stay sorted by timestamp")
	}
}

func TestDownsampleKeepsSpike(t *testing.T) {
	// A single extreme outlier forms the largest triangle in its bucket
	// and must survive downsampling.
	input := makeWave(1000, 0, 1000)
	input[500].Value = 10_000

	out := Downsample(input, 50)

	var found bool
	for _, p := range out {
		if p.Value == 10_000 {
			found = true
			break
		}
	}
	assert.True(t, found, "spike should be retained")
}

func TestBudgetForWidth(t *testing.T) {
	assert.Equal(t, 160, BudgetForWidth(80))
	assert.Equal(t, 16, BudgetForWidth(4), "tiny widths use the floor")
	assert.Equal(t, 16, BudgetForWidth(0))
}
