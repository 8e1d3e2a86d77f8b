package render

import "github.com/charmbracelet/lipgloss"

// Color palette for chart rendering.
const (
	// Surfaces
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	// Health thresholds
	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	// Text
	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	// Default series color when a series carries no color token
	ColorGraph = lipgloss.Color("#00FFFF")

	// Dimmed stroke for non-active series while one series is emphasized
	ColorDimmed = lipgloss.Color("#2E2E44")

	// Placeholder for density cells with no data
	ColorEmptyCell = lipgloss.Color("#1A1A26")
)

// Percentage thresholds for metric coloring.
const (
	WarningThreshold  = 70.0
	CriticalThreshold = 90.0
)

// seriesPalette provides stable fallback colors for series without an
// explicit color token, assigned by series position.
var seriesPalette = []lipgloss.Color{
	lipgloss.Color("#00FFFF"), // cyan
	lipgloss.Color("#FF2E97"), // pink
	lipgloss.Color("#39FF14"), // green
	lipgloss.Color("#FFAA00"), // amber
	lipgloss.Color("#BF40FF"), // purple
	lipgloss.Color("#4D9FFF"), // blue
}

// MetricColor returns the threshold color for a percentage-based metric:
// green below 70%, amber 70-90%, red above 90%.
func MetricColor(percent float64) lipgloss.Color {
	switch {
	case percent >= CriticalThreshold:
		return ColorCritical
	case percent >= WarningThreshold:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// SeriesColor resolves a series' color token, falling back to the
// palette by index.
func SeriesColor(token string, index int) lipgloss.Color {
	if token != "" {
		return lipgloss.Color(token)
	}
	return seriesPalette[((index%len(seriesPalette))+len(seriesPalette))%len(seriesPalette)]
}
