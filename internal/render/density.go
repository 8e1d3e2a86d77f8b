package render

import (
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sightlinehq/sightline/internal/timeseries"
)

// Density heatmap layout constants.
const (
	// DensityColumns is the fixed bucket count across the time window.
	DensityColumns = 45
	// DensityMaxSeries caps the heatmap at the busiest series.
	DensityMaxSeries = 20
	// Intensity floor keeps secondary spikes visible next to one
	// outlier; the ceiling is full intensity.
	densityMinIntensity = 0.15
	densityMaxIntensity = 1.0
)

// DensityRow is one series' bucketed maxima. Intensity is the log-scaled
// draw weight in [0.15, 1.0], or -1 for buckets with no data (rendered
// as a faint placeholder, distinct from a true zero).
type DensityRow struct {
	SeriesID  string
	Name      string
	Values    []float64
	Intensity []float64
}

// Density is the computed heatmap grid.
type Density struct {
	Rows      []DensityRow
	GlobalMax float64
}

// BuildDensity buckets the top series by volume into the fixed column
// grid, taking the max value per (series, bucket) cell.
func BuildDensity(series []timeseries.Series, w timeseries.Window) *Density {
	ranked := rankByVolume(series)
	if len(ranked) > DensityMaxSeries {
		ranked = ranked[:DensityMaxSeries]
	}

	d := &Density{}
	for _, s := range ranked {
		row := DensityRow{
			SeriesID:  s.ID,
			Name:      s.Name,
			Values:    make([]float64, DensityColumns),
			Intensity: make([]float64, DensityColumns),
		}
		for i := range row.Values {
			row.Values[i] = math.NaN()
		}
		for _, p := range timeseries.Clip(s.Points, w) {
			bucket := bucketFor(p.TimestampMs, w)
			if math.IsNaN(row.Values[bucket]) || p.Value > row.Values[bucket] {
				row.Values[bucket] = p.Value
			}
		}
		for _, v := range row.Values {
			if !math.IsNaN(v) && v > d.GlobalMax {
				d.GlobalMax = v
			}
		}
		d.Rows = append(d.Rows, row)
	}

	for ri := range d.Rows {
		row := &d.Rows[ri]
		for ci, v := range row.Values {
			if math.IsNaN(v) {
				row.Intensity[ci] = -1
				continue
			}
			row.Intensity[ci] = intensity(v, d.GlobalMax)
		}
	}
	return d
}

// Render draws the heatmap with one labeled row per series.
func (d *Density) Render(labelWidth int) string {
	var lines []string
	for _, row := range d.Rows {
		var sb strings.Builder
		sb.WriteString(padLabel(row.Name, labelWidth))
		sb.WriteString(" ")
		for ci, in := range row.Intensity {
			if in < 0 {
				sb.WriteString(lipgloss.NewStyle().Foreground(ColorEmptyCell).Render("·"))
				continue
			}
			sb.WriteString(cellStyle(row.Values[ci], in).Render("█"))
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}

// intensity log-scales value/globalMax into [0.15, 1.0] so a single
// outlier cannot flatten everything else to invisibility.
func intensity(value, globalMax float64) float64 {
	if globalMax <= 0 || value <= 0 {
		return densityMinIntensity
	}
	ratio := value / globalMax
	scaled := math.Log1p(ratio*9) / math.Log1p(9)
	if scaled < densityMinIntensity {
		return densityMinIntensity
	}
	if scaled > densityMaxIntensity {
		return densityMaxIntensity
	}
	return scaled
}

func bucketFor(timestampMs int64, w timeseries.Window) int {
	if w.RangeMs <= 0 {
		return 0
	}
	frac := float64(timestampMs-w.StartMs) / float64(w.RangeMs)
	bucket := int(frac * DensityColumns)
	if bucket < 0 {
		bucket = 0
	}
	if bucket >= DensityColumns {
		bucket = DensityColumns - 1
	}
	return bucket
}

// rankByVolume sorts series by the sum of their values, busiest first,
// without mutating the input.
func rankByVolume(series []timeseries.Series) []timeseries.Series {
	ranked := make([]timeseries.Series, len(series))
	copy(ranked, series)
	volume := func(s timeseries.Series) float64 {
		var sum float64
		for _, p := range s.Points {
			sum += p.Value
		}
		return sum
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return volume(ranked[i]) > volume(ranked[j])
	})
	return ranked
}

func cellStyle(value, in float64) lipgloss.Style {
	base := MetricColor(value)
	if in < 0.4 {
		// Low intensity renders in the muted tone of the same hue
		// family; lipgloss has no alpha, so intensity maps to color
		// steps.
		return lipgloss.NewStyle().Foreground(ColorTextMuted)
	}
	style := lipgloss.NewStyle().Foreground(base)
	if in >= 0.85 {
		style = style.Bold(true)
	}
	return style
}

func padLabel(name string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(name)
	if len(runes) > width {
		return string(runes[:width-1]) + "…"
	}
	return name + strings.Repeat(" ", width-len(runes))
}
