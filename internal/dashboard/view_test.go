package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sightlinehq/sightline/internal/api"
	"github.com/sightlinehq/sightline/internal/render"
	"github.com/sightlinehq/sightline/internal/timeseries"
)

func TestRenderHeader(t *testing.T) {
	m := testModel(t, &fakeClient{})
	m.source = api.SourceMemory
	m.lastFetch = time.Now()

	header := m.renderHeader()
	assert.Contains(t, header, "sightline")
	assert.Contains(t, header, "CPU")
	assert.Contains(t, header, "1h")
	assert.Contains(t, header, "memory")
}

func TestRenderHeaderShowsDegradedState(t *testing.T) {
	m := testModel(t, &fakeClient{})
	m.fetchErr = "connection refused"

	header := m.renderHeader()
	assert.Contains(t, header, "showing last data")
	assert.Contains(t, header, "connection refused")
}

func TestRenderCardsEmpty(t *testing.T) {
	m := testModel(t, &fakeClient{})
	assert.Contains(t, m.renderCards(), "Waiting for resources")
}

func TestRenderCardsShowsMetrics(t *testing.T) {
	window := timeseries.WindowFor("1h", time.Now())
	m := testModel(t, &fakeClient{})
	m.width = 100
	m.window = window
	m.resources = []api.Resource{{ID: "node-1", Type: "node", Name: "pve"}}
	m.data = map[string]resourceData{
		"node-1": {
			"cpu":    steadyPoints(window.StartMs, 10, 60_000, 42.5),
			"memory": steadyPoints(window.StartMs, 10, 60_000, 91.0),
			"net":    steadyPoints(window.StartMs, 10, 60_000, 2048),
		},
	}

	out := m.renderCards()
	assert.Contains(t, out, "pve")
	assert.Contains(t, out, "node")
	assert.Contains(t, out, "42.5%")
	assert.Contains(t, out, "91.0%")
	assert.Contains(t, out, "2.0 KB/s")
	assert.Contains(t, out, "—", "missing disk metric renders a placeholder")
}

func TestRenderDetailWithoutData(t *testing.T) {
	m := testModel(t, &fakeClient{})
	m.viewMode = ViewDetail
	assert.Contains(t, m.renderDetail(), "No data")
}

func TestRenderTooltip(t *testing.T) {
	m := testModel(t, &fakeClient{})
	m.hover = &render.HoverState{
		TimestampMs:  time.Date(2026, 8, 30, 14, 30, 0, 0, time.Local).UnixMilli(),
		FocusedIndex: -1,
		Rows: []render.TooltipRow{
			{Name: "pve", Color: "#00FFFF", Point: timeseries.Point{Value: 73.2}},
			{Name: "vm-100", Color: "#FF2E97", Point: timeseries.Point{Value: 12.0}},
		},
		More: 3,
	}

	out := m.renderTooltip()
	assert.Contains(t, out, "14:30:00")
	assert.Contains(t, out, "pve")
	assert.Contains(t, out, "73.2%")
	assert.Contains(t, out, "vm-100")
	assert.Contains(t, out, "+3 more")
	assert.NotContains(t, out, "locked")
}

func TestRenderTooltipLocked(t *testing.T) {
	m := testModel(t, &fakeClient{})
	m.locked = 0
	m.hover = &render.HoverState{
		Rows: []render.TooltipRow{{Name: "pve", Point: timeseries.Point{Value: 5}}},
	}
	assert.Contains(t, m.renderTooltip(), "locked")
}

func TestRenderCursorLine(t *testing.T) {
	m := testModel(t, &fakeClient{})
	m.chartInput = render.ChartInput{Geometry: render.Geometry{Width: 10}}
	m.cursorCol = 3

	line := m.renderCursorLine()
	assert.Contains(t, line, "┴")
	idx := strings.Index(line, "┴")
	prefix := line[:idx]
	assert.Equal(t, 3, strings.Count(prefix, "─"))
}

func TestFooterHintsPerView(t *testing.T) {
	m := testModel(t, &fakeClient{})

	assert.Contains(t, m.renderFooter(), "enter chart")

	m.viewMode = ViewDetail
	assert.Contains(t, m.renderFooter(), "space lock")

	m.viewMode = ViewDensity
	assert.Contains(t, m.renderFooter(), "esc chart")
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{512, "512 B/s"},
		{2048, "2.0 KB/s"},
		{3 * 1024 * 1024, "3.0 MB/s"},
		{5 * 1024 * 1024 * 1024, "5.0 GB/s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatRate(tt.in))
	}
}

func TestDensityLabelWidth(t *testing.T) {
	m := testModel(t, &fakeClient{})
	m.resources = []api.Resource{{Name: "a-very-long-resource-name-here"}}
	assert.Equal(t, 24, m.densityLabelWidth())

	m.resources = []api.Resource{{Name: "short"}}
	assert.Equal(t, 14, m.densityLabelWidth())
}

func TestFullViewRenders(t *testing.T) {
	window := timeseries.WindowFor("1h", time.Now())
	m := testModel(t, &fakeClient{})
	m.width = 80
	m.height = 30
	m.window = window
	m.resources = []api.Resource{{ID: "node-1", Name: "pve"}}
	m.data = map[string]resourceData{
		"node-1": {"cpu": steadyPoints(window.StartMs, 60, 60_000, 50)},
	}
	m.rebuild()

	for _, mode := range []ViewMode{ViewCards, ViewDetail, ViewDensity} {
		m.viewMode = mode
		out := m.View()
		require.NotEmpty(t, out)
		assert.Contains(t, out, "sightline")
	}
}
