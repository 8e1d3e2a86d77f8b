package dashboard

// ViewMode defines the current display mode of the dashboard.
type ViewMode int

const (
	// ViewCards shows the resource summary grid.
	ViewCards ViewMode = iota
	// ViewDetail shows one metric across all resources as a full chart
	// with the hover cursor.
	ViewDetail
	// ViewDensity shows the density heatmap for the same metric.
	ViewDensity
)

// metricOrder is the cycle order for the metric selector.
var metricOrder = []string{"cpu", "memory", "disk", "net"}

// metricLabel returns the display name for a metric key.
func metricLabel(metric string) string {
	switch metric {
	case "cpu":
		return "CPU"
	case "memory":
		return "Memory"
	case "disk":
		return "Disk"
	case "net":
		return "Network"
	default:
		return metric
	}
}

// metricIsPercent reports whether a metric uses the fixed [0,100] scale.
// Network rates auto-range instead.
func metricIsPercent(metric string) bool {
	return metric != "net"
}

func nextMetric(metric string) string {
	for i, m := range metricOrder {
		if m == metric {
			return metricOrder[(i+1)%len(metricOrder)]
		}
	}
	return metricOrder[0]
}

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyRefresh     = "r"
	KeyCycleMetric = "m"
	KeyDensity     = "d"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeyCursorLeft  = "left"
	KeyCursorLeftH = "h"
	KeyCursorRight = "right"
	KeyCursorRightL = "l"
	KeyExpand      = "enter"
	KeyCollapse    = "esc"
	KeyToggleLock  = " "
)
