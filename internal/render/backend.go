package render

import (
	"github.com/sightlinehq/sightline/internal/timeseries"
)

// BackendKind identifies a chart backend.
type BackendKind int

const (
	// BackendBlock draws one block character per column. Crisp for
	// small charts and cheap to diff in the terminal.
	BackendBlock BackendKind = iota
	// BackendBraille draws 2x4 dots per cell for large charts where
	// block resolution would smear detail.
	BackendBraille
)

func (k BackendKind) String() string {
	if k == BackendBraille {
		return "braille"
	}
	return "block"
}

// DefaultBackendThreshold is the series-count x point-count product
// above which the braille backend is chosen.
const DefaultBackendThreshold = 2000

// ChartSeries pairs a series' identity with its drawable segments.
type ChartSeries struct {
	ID       string
	Name     string
	Color    string
	Segments []timeseries.Segment
}

// ChartInput is everything a backend needs to draw one chart. At most
// one series may be active (hovered-nearest or click-locked); active is
// -1 when none. The active series draws at full intensity and the rest
// dim; with no active series, all draw at baseline.
type ChartInput struct {
	Series      []ChartSeries
	Geometry    Geometry
	ActiveIndex int
}

// Backend renders a ChartInput to terminal output. Backend choice is a
// performance trade, not a semantic one: both consume the same Geometry
// so the plotted coordinates match.
type Backend interface {
	Kind() BackendKind
	Render(in ChartInput) string
}

// ChooseBackend picks a backend from chart size alone. Selection is kept
// separate from drawing so either backend can be tested against the same
// fixtures.
func ChooseBackend(seriesCount, totalPoints, threshold int) BackendKind {
	if threshold <= 0 {
		threshold = DefaultBackendThreshold
	}
	if seriesCount*totalPoints > threshold {
		return BackendBraille
	}
	return BackendBlock
}

// NewBackend constructs the backend for a kind.
func NewBackend(kind BackendKind) Backend {
	if kind == BackendBraille {
		return &brailleBackend{}
	}
	return &blockBackend{}
}

// TotalPoints sums the segment points across all chart series.
func TotalPoints(series []ChartSeries) int {
	total := 0
	for _, s := range series {
		for _, seg := range s.Segments {
			total += len(seg.Points)
		}
	}
	return total
}

// seriesStroke returns the color and dimming for one series given the
// emphasis state.
func seriesStroke(in ChartInput, idx int) (color string, dimmed bool) {
	s := in.Series[idx]
	if in.ActiveIndex < 0 {
		return s.Color, false
	}
	if in.ActiveIndex == idx {
		return s.Color, false
	}
	return s.Color, true
}

// drawOrder yields series indexes with the active series last so its
// stroke wins overlapping cells.
func drawOrder(in ChartInput) []int {
	order := make([]int, 0, len(in.Series))
	for i := range in.Series {
		if i != in.ActiveIndex {
			order = append(order, i)
		}
	}
	if in.ActiveIndex >= 0 && in.ActiveIndex < len(in.Series) {
		order = append(order, in.ActiveIndex)
	}
	return order
}
