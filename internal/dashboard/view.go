package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sightlinehq/sightline/internal/render"
	"github.com/sightlinehq/sightline/internal/timeseries"
)

// chromeHeight is the rows reserved around the detail chart for the
// header, cursor line, tooltip panel, and footer.
const chromeHeight = 14

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(render.ColorTextPrimary).
			Background(render.ColorSurfaceBg).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(render.ColorGraph).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(render.ColorTextSecondary)

	errorStyle = lipgloss.NewStyle().
			Foreground(render.ColorCritical)

	footerStyle = lipgloss.NewStyle().
			Foreground(render.ColorTextMuted)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(render.ColorBorder).
			Padding(0, 1)

	cardSelectedStyle = cardStyle.
				BorderForeground(render.ColorGraph)

	tooltipStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(render.ColorBorder).
			Padding(0, 1)
)

func (m Model) render() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.viewMode {
	case ViewCards:
		b.WriteString(m.renderCards())
	case ViewDetail:
		b.WriteString(m.renderDetail())
	case ViewDensity:
		b.WriteString(m.renderDensity())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("sightline")

	parts := []string{
		metricLabel(m.metric),
		m.rangeName,
	}
	if m.source != "" {
		parts = append(parts, string(m.source))
	}
	if !m.lastFetch.IsZero() {
		parts = append(parts, fmt.Sprintf("updated %ds ago", m.SecondsSinceUpdate()))
	}
	info := subtitleStyle.Render(" | " + strings.Join(parts, " | "))

	line := title + info
	if m.fetchErr != "" {
		line += errorStyle.Render("  ⚠ showing last data: " + m.fetchErr)
	}
	return headerStyle.Render(line)
}

// renderCards renders the resource summary grid.
func (m Model) renderCards() string {
	if len(m.resources) == 0 {
		return subtitleStyle.Render("Waiting for resources…")
	}

	cardWidth := m.cardWidth()
	var cards []string
	for i := range m.resources {
		cards = append(cards, m.renderCard(i, cardWidth))
	}

	perRow := 1
	if m.width > 0 {
		perRow = m.width / (cardWidth + 4)
		if perRow < 1 {
			perRow = 1
		}
	}

	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := i + perRow
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) cardWidth() int {
	if m.width >= 88 {
		return 38
	}
	if m.width > 8 {
		return m.width - 6
	}
	return 38
}

func (m Model) renderCard(idx, width int) string {
	res := m.resources[idx]
	rd := m.data[res.ID]

	var b strings.Builder
	name := lipgloss.NewStyle().Foreground(render.ColorTextPrimary).Bold(true).Render(res.Name)
	kind := subtitleStyle.Render(" " + res.Type)
	b.WriteString(name + kind + "\n")

	for _, metric := range metricOrder {
		b.WriteString(m.renderCardMetric(rd, metric))
		b.WriteString("\n")
	}

	b.WriteString(m.renderSparkline(rd[m.metric], width-2))

	style := cardStyle
	if idx == m.selected {
		style = cardSelectedStyle
	}
	return style.Width(width).Render(b.String())
}

func (m Model) renderCardMetric(rd resourceData, metric string) string {
	label := subtitleStyle.Render(fmt.Sprintf("%-8s", metricLabel(metric)))
	points := rd[metric]
	if len(points) == 0 {
		return label + subtitleStyle.Render("—")
	}
	latest := points[len(points)-1].Value
	if metricIsPercent(metric) {
		style := lipgloss.NewStyle().Foreground(render.MetricColor(latest))
		return label + style.Render(fmt.Sprintf("%5.1f%%", latest))
	}
	return label + lipgloss.NewStyle().
		Foreground(render.ColorTextPrimary).
		Render(formatRate(latest))
}

// renderSparkline draws a small single-series block chart of the card's
// current metric.
func (m Model) renderSparkline(points []timeseries.Point, width int) string {
	clipped := timeseries.Clip(points, m.window)
	if len(clipped) == 0 || width < 8 {
		return ""
	}
	clipped = timeseries.Downsample(clipped, timeseries.BudgetForWidth(width))
	threshold := timeseries.InferGapThreshold(clipped, m.window.RangeMs)
	segments := timeseries.SegmentGaps(clipped, threshold, m.window.StartMs, true)

	g := render.Geometry{
		Width:  width,
		Height: 2,
		Window: m.window,
		YMode:  render.YModePercent,
	}
	if !metricIsPercent(m.metric) {
		g.YMode = render.YModeAuto
		g.YMax = m.metricMax()
	}

	return render.NewBackend(render.BackendBlock).Render(render.ChartInput{
		Series: []render.ChartSeries{{
			Color:    string(render.ColorGraph),
			Segments: segments,
		}},
		Geometry:    g,
		ActiveIndex: -1,
	})
}

// renderDetail renders the full chart with the cursor line and tooltip.
func (m Model) renderDetail() string {
	if m.chartCache == "" {
		return subtitleStyle.Render("No data in this window")
	}

	var b strings.Builder
	b.WriteString(m.chartCache)
	b.WriteString("\n")
	b.WriteString(m.renderCursorLine())
	b.WriteString("\n")
	b.WriteString(m.renderTooltip())
	return b.String()
}

// renderCursorLine draws a caret under the cursor column.
func (m Model) renderCursorLine() string {
	g := m.chartInput.Geometry
	if g.Width <= 0 {
		return ""
	}
	col := m.cursorCol
	if col >= g.Width {
		col = g.Width - 1
	}
	line := strings.Repeat("─", col) + "┴" + strings.Repeat("─", g.Width-col-1)
	return subtitleStyle.Render(line)
}

func (m Model) renderTooltip() string {
	if m.hover == nil {
		return footerStyle.Render("move the cursor over data to inspect values")
	}

	ts := time.UnixMilli(m.hover.TimestampMs).Format("15:04:05")
	var b strings.Builder
	b.WriteString(subtitleStyle.Render(ts))
	if m.locked >= 0 {
		b.WriteString(subtitleStyle.Render("  🔒 locked"))
	}
	b.WriteString("\n")

	for _, row := range m.hover.Rows {
		marker := lipgloss.NewStyle().
			Foreground(lipgloss.Color(row.Color)).
			Render("●")
		value := formatValue(m.metric, row.Point.Value)
		b.WriteString(fmt.Sprintf("%s %-14s %s\n", marker, row.Name, value))
	}
	if m.hover.More > 0 {
		b.WriteString(footerStyle.Render(fmt.Sprintf("+%d more", m.hover.More)))
	}
	return tooltipStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderDensity() string {
	if m.densityCache == "" {
		return subtitleStyle.Render("No data in this window")
	}
	return m.densityCache
}

func (m Model) densityLabelWidth() int {
	width := 14
	for _, res := range m.resources {
		if len(res.Name) > width {
			width = len(res.Name)
		}
	}
	if width > 24 {
		width = 24
	}
	return width
}

func (m Model) renderFooter() string {
	var hints []string
	switch m.viewMode {
	case ViewCards:
		hints = []string{"↑↓ select", "enter chart", "m metric", "1-7 range", "d density", "r refresh", "q quit"}
	case ViewDetail:
		hints = []string{"←→↑↓ cursor", "space lock", "esc back", "m metric", "1-7 range", "d density", "q quit"}
	case ViewDensity:
		hints = []string{"esc chart", "m metric", "1-7 range", "q quit"}
	}
	return footerStyle.Render(strings.Join(hints, " | "))
}

func formatValue(metric string, v float64) string {
	if metricIsPercent(metric) {
		return fmt.Sprintf("%.1f%%", v)
	}
	return formatRate(v)
}

// formatRate formats a bytes-per-second rate as a human-readable string.
func formatRate(bytesPerSecond float64) string {
	switch {
	case bytesPerSecond < 1024:
		return fmt.Sprintf("%.0f B/s", bytesPerSecond)
	case bytesPerSecond < 1024*1024:
		return fmt.Sprintf("%.1f KB/s", bytesPerSecond/1024)
	case bytesPerSecond < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB/s", bytesPerSecond/(1024*1024))
	default:
		return fmt.Sprintf("%.1f GB/s", bytesPerSecond/(1024*1024*1024))
	}
}
