package dashboard

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sightlinehq/sightline/internal/api"
	"github.com/sightlinehq/sightline/internal/config"
	"github.com/sightlinehq/sightline/internal/errors"
	"github.com/sightlinehq/sightline/internal/logger"
	"github.com/sightlinehq/sightline/internal/timeseries"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// fakeClient serves canned resources and history from memory.
type fakeClient struct {
	resources []api.Resource
	points    map[string][]timeseries.Point // keyed by resourceID+"/"+metric
	err       error
}

func (f *fakeClient) Resources(ctx context.Context) ([]api.Resource, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resources, nil
}

func (f *fakeClient) History(ctx context.Context, req api.HistoryRequest) (*api.HistoryResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &api.HistoryResponse{
		Points: f.points[req.ResourceID+"/"+req.Metric],
		Source: api.SourceStore,
	}, nil
}

func testModel(t *testing.T, client Client) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	m := NewModel(client, cfg, logger.Noop())
	t.Cleanup(m.Stop)
	return m
}

func steadyPoints(startMs int64, n int, stepMs int64, value float64) []timeseries.Point {
	points := make([]timeseries.Point, n)
	for i := range points {
		points[i] = timeseries.Point{TimestampMs: startMs + int64(i)*stepMs, Value: value}
	}
	return points
}

func TestNewModelDefaults(t *testing.T) {
	m := testModel(t, &fakeClient{})
	assert.Equal(t, "1h", m.rangeName)
	assert.Equal(t, "cpu", m.metric)
	assert.Equal(t, -1, m.locked)
	assert.Equal(t, ViewCards, m.viewMode)
}

func TestNewModelFallsBackOnBadRange(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Charts.DefaultRange = "bogus"
	m := NewModel(&fakeClient{}, cfg, logger.Noop())
	defer m.Stop()
	assert.Equal(t, timeseries.DefaultRange, m.rangeName)
}

func TestResourcesMsgSortsAndFetches(t *testing.T) {
	m := testModel(t, &fakeClient{})

	updated, cmd := m.Update(resourcesMsg{resources: []api.Resource{
		{ID: "vm-2", Type: "vm", Name: "b"},
		{ID: "node-1", Type: "node", Name: "a"},
	}})
	m = updated.(Model)

	require.Len(t, m.resources, 2)
	assert.Equal(t, "node-1", m.resources[0].ID)
	assert.NotNil(t, cmd, "discovery kicks off the first fetch")
}

func TestFetchCmdCollectsAllMetrics(t *testing.T) {
	now := time.Now().UnixMilli()
	client := &fakeClient{
		resources: []api.Resource{{ID: "node-1", Type: "node", Name: "pve"}},
		points:    map[string][]timeseries.Point{},
	}
	for _, metric := range metricOrder {
		client.points["node-1/"+metric] = steadyPoints(now-60_000, 5, 10_000, 50)
	}

	m := testModel(t, client)
	m.resources = client.resources

	cmd := m.fetchCmd()
	require.NotNil(t, cmd)
	msg, ok := cmd().(dataMsg)
	require.True(t, ok)

	require.NoError(t, msg.err)
	assert.Equal(t, api.SourceStore, msg.source)
	require.Contains(t, msg.data, "node-1")
	for _, metric := range metricOrder {
		assert.Len(t, msg.data["node-1"][metric], 5, metric)
	}
	assert.Equal(t, timeseries.WindowFor("1h", time.Now()).RangeMs, msg.window.RangeMs)
}

func TestStaleDataMsgDiscarded(t *testing.T) {
	m := testModel(t, &fakeClient{})
	m.resources = []api.Resource{{ID: "node-1"}}

	first := m.tracker.Begin()
	m.tracker.Begin() // a newer fetch is in flight

	updated, _ := m.Update(dataMsg{
		requestID: first,
		data:      map[string]resourceData{"node-1": {"cpu": steadyPoints(0, 3, 1000, 1)}},
	})
	m = updated.(Model)

	assert.Empty(t, m.data, "stale fetch result must not land")
}

func TestFetchErrorDegradesToLastKnownGood(t *testing.T) {
	m := testModel(t, &fakeClient{})
	m.resources = []api.Resource{{ID: "node-1"}}

	good := map[string]resourceData{"node-1": {"cpu": steadyPoints(0, 3, 1000, 42)}}
	id := m.tracker.Begin()
	updated, _ := m.Update(dataMsg{requestID: id, data: good, source: api.SourceStore})
	m = updated.(Model)
	require.Equal(t, good, m.data)

	id = m.tracker.Begin()
	updated, _ = m.Update(dataMsg{
		requestID: id,
		err:       errors.New(errors.ErrAPI, "backend down", ""),
	})
	m = updated.(Model)

	assert.Equal(t, good, m.data, "existing data survives a failed poll")
	assert.Contains(t, m.fetchErr, "backend down")
}

func TestSuccessfulFetchClearsError(t *testing.T) {
	m := testModel(t, &fakeClient{})
	m.fetchErr = "backend down"

	id := m.tracker.Begin()
	updated, _ := m.Update(dataMsg{requestID: id, data: map[string]resourceData{}})
	m = updated.(Model)

	assert.Empty(t, m.fetchErr)
}

func TestFrameCoalescing(t *testing.T) {
	m := testModel(t, &fakeClient{})

	cmd1 := m.requestFrameCmd()
	require.NotNil(t, cmd1)
	cmd2 := m.requestFrameCmd()
	assert.Nil(t, cmd2, "second request joins the pending frame")
	assert.Equal(t, 1, m.scheduler.Pending())

	m.scheduler.Flush()
	msg := cmd1()
	assert.Equal(t, frameMsg{}, msg)

	updated, _ := m.Update(msg)
	m = updated.(Model)
	assert.False(t, m.framePending)
}

func TestRebuildBuildsChartAndAutoUnlocks(t *testing.T) {
	now := time.Now()
	window := timeseries.WindowFor("1h", now)

	m := testModel(t, &fakeClient{})
	m.width = 60
	m.height = 24
	m.window = window
	m.resources = []api.Resource{{ID: "node-1", Name: "pve"}}
	m.data = map[string]resourceData{
		"node-1": {"cpu": steadyPoints(window.StartMs, 60, 60_000, 50)},
	}
	m.locked = 5 // from a previous window with more series

	m.rebuild()

	require.Len(t, m.chartInput.Series, 1)
	assert.NotEmpty(t, m.chartCache)
	assert.NotEmpty(t, m.densityCache)
	assert.Equal(t, -1, m.locked, "lock on a vanished series releases")
	assert.Equal(t, -1, m.chartInput.ActiveIndex)
}

func TestCursorHoverResolvesNearestPoint(t *testing.T) {
	now := time.Now()
	window := timeseries.WindowFor("1h", now)

	m := testModel(t, &fakeClient{})
	m.width = 60
	m.height = 24
	m.window = window
	m.viewMode = ViewDetail
	m.resources = []api.Resource{{ID: "node-1", Name: "pve"}}
	m.data = map[string]resourceData{
		"node-1": {"cpu": steadyPoints(window.StartMs, 60, 60_000, 50)},
	}
	m.rebuild()

	handled, _ := m.handleDetailKey(KeyCursorRight)
	assert.True(t, handled)
	require.NotNil(t, m.hover)
	assert.Len(t, m.hover.Rows, 1)
	assert.InDelta(t, 50, m.hover.Rows[0].Point.Value, 0.001)
}

func TestMetricCycleResetsEmphasis(t *testing.T) {
	m := testModel(t, &fakeClient{})
	m.locked = 2

	handled, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})

	assert.True(t, handled)
	assert.Equal(t, "memory", m.metric)
	assert.Equal(t, -1, m.locked)
	assert.NotNil(t, cmd)
}

func TestRangeKeysSelectByDuration(t *testing.T) {
	m := testModel(t, &fakeClient{})
	m.resources = []api.Resource{{ID: "node-1"}}

	handled, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	assert.True(t, handled)
	assert.Equal(t, "5m", m.rangeName)
	assert.NotNil(t, cmd, "range change refetches")

	handled, cmd = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'7'}})
	assert.True(t, handled)
	assert.Equal(t, "7d", m.rangeName)
	assert.NotNil(t, cmd)

	// Same range again is a no-op, no refetch.
	_, cmd = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'7'}})
	assert.Nil(t, cmd)
}

func TestViewModeTransitions(t *testing.T) {
	m := testModel(t, &fakeClient{})
	m.resources = []api.Resource{{ID: "node-1"}}

	handled, _ := m.handleKey(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, handled)
	assert.Equal(t, ViewDetail, m.viewMode)

	handled, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	assert.True(t, handled)
	assert.Equal(t, ViewDensity, m.viewMode)

	handled, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, handled)
	assert.Equal(t, ViewDetail, m.viewMode)

	handled, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, handled)
	assert.Equal(t, ViewCards, m.viewMode)
}

func TestQuitStopsScheduler(t *testing.T) {
	m := testModel(t, &fakeClient{})

	handled, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.True(t, handled)
	assert.NotNil(t, cmd)
	assert.True(t, m.quitting)
}

func TestSelectionClamps(t *testing.T) {
	m := testModel(t, &fakeClient{})
	m.resources = []api.Resource{{ID: "a"}, {ID: "b"}}

	m.handleCardsKey(KeySelectNext)
	m.handleCardsKey(KeySelectNext)
	assert.Equal(t, 1, m.selected)

	m.handleCardsKey(KeySelectPrev)
	m.handleCardsKey(KeySelectPrev)
	assert.Equal(t, 0, m.selected)
}
