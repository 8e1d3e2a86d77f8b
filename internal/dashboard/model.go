// Package dashboard is the full-screen metrics TUI: resource summary
// cards, a per-metric chart with a keyboard hover cursor, and the
// density heatmap, polling the backend on a fixed interval.
package dashboard

import (
	"context"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sightlinehq/sightline/internal/api"
	"github.com/sightlinehq/sightline/internal/config"
	"github.com/sightlinehq/sightline/internal/logger"
	"github.com/sightlinehq/sightline/internal/render"
	"github.com/sightlinehq/sightline/internal/timeseries"
)

// Client is the backend surface the dashboard consumes.
type Client interface {
	Resources(ctx context.Context) ([]api.Resource, error)
	History(ctx context.Context, req api.HistoryRequest) (*api.HistoryResponse, error)
}

// resourceData holds the fetched points for one resource, keyed by metric.
type resourceData map[string][]timeseries.Point

// Model is the Bubble Tea model for the metrics dashboard.
type Model struct {
	client Client
	cfg    *config.Config
	log    logger.Logger

	resources []api.Resource
	data      map[string]resourceData
	source    api.Source
	window    timeseries.Window
	fetchErr  string
	lastFetch time.Time

	rangeName string
	metric    string
	selected  int
	viewMode  ViewMode

	cursorCol int
	cursorRow int
	hover     *render.HoverState
	locked    int

	tracker   *api.RequestTracker
	scheduler *render.Scheduler

	chartInput   render.ChartInput
	chartCache   string
	densityCache string
	framePending bool

	width    int
	height   int
	quitting bool
}

// tickMsg signals a periodic refresh.
type tickMsg time.Time

// frameMsg signals a coalesced chart rebuild.
type frameMsg struct{}

// resourcesMsg carries the discovered resource list.
type resourcesMsg struct {
	resources []api.Resource
	err       error
}

// dataMsg carries one poll cycle's fetched series.
type dataMsg struct {
	requestID uint64
	window    timeseries.Window
	data      map[string]resourceData
	source    api.Source
	err       error
}

// fetchTimeout bounds one poll cycle across all resources and metrics.
const fetchTimeout = 20 * time.Second

// NewModel creates a dashboard model.
func NewModel(client Client, cfg *config.Config, log logger.Logger) Model {
	if log == nil {
		log = logger.Noop()
	}
	rangeName := cfg.Charts.DefaultRange
	if !timeseries.ValidRange(rangeName) {
		rangeName = timeseries.DefaultRange
	}
	return Model{
		client:    client,
		cfg:       cfg,
		log:       log,
		data:      make(map[string]resourceData),
		rangeName: rangeName,
		metric:    metricOrder[0],
		locked:    -1,
		tracker:   &api.RequestTracker{},
		scheduler: render.NewScheduler(0, log),
	}
}

// Init discovers resources and starts the poll loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadResourcesCmd(), m.tickCmd())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.handleKey(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampCursor()
		return m, m.requestFrameCmd()

	case tickMsg:
		return m, tea.Batch(m.tickCmd(), m.fetchCmd())

	case resourcesMsg:
		if msg.err != nil {
			// Discovery failures retry on the next tick.
			m.fetchErr = msg.err.Error()
			return m, nil
		}
		m.resources = msg.resources
		sort.Slice(m.resources, func(i, j int) bool {
			return m.resources[i].ID < m.resources[j].ID
		})
		if m.selected >= len(m.resources) {
			m.selected = len(m.resources) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
		return m, m.fetchCmd()

	case dataMsg:
		if !m.tracker.Accept(msg.requestID) {
			// A newer fetch superseded this one; the stale result must
			// not overwrite current data.
			return m, nil
		}
		if msg.err != nil {
			// Degrade to last-known-good; the next poll retries.
			m.fetchErr = msg.err.Error()
			return m, nil
		}
		m.data = msg.data
		m.window = msg.window
		m.source = msg.source
		m.fetchErr = ""
		m.lastFetch = time.Now()
		return m, m.requestFrameCmd()

	case frameMsg:
		m.framePending = false
		m.rebuild()
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

// Stop releases the frame scheduler. Call after the program exits.
func (m Model) Stop() {
	m.scheduler.Stop()
}

func (m Model) tickCmd() tea.Cmd {
	interval := m.cfg.Charts.Refresh
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loadResourcesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		resources, err := m.client.Resources(ctx)
		return resourcesMsg{resources: resources, err: err}
	}
}

// fetchCmd fetches every (resource, metric) series for the current
// window in one cycle, tagged with a tracker id so late results from a
// superseded cycle are discarded.
func (m *Model) fetchCmd() tea.Cmd {
	if len(m.resources) == 0 {
		return nil
	}
	id := m.tracker.Begin()
	resources := m.resources
	rangeName := m.rangeName
	maxPoints := m.cfg.Charts.MaxPoints
	client := m.client

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		window := timeseries.WindowFor(rangeName, time.Now())
		out := dataMsg{requestID: id, window: window, data: make(map[string]resourceData)}
		for _, res := range resources {
			rd := make(resourceData)
			for _, metric := range metricOrder {
				resp, err := client.History(ctx, api.HistoryRequest{
					ResourceType: res.Type,
					ResourceID:   res.ID,
					Metric:       metric,
					Range:        rangeName,
					MaxPoints:    maxPoints,
				})
				if err != nil {
					out.err = err
					return out
				}
				rd[metric] = resp.Points
				out.source = resp.Source
			}
			out.data[res.ID] = rd
		}
		return out
	}
}

// requestFrameCmd coalesces rebuild requests through the frame
// scheduler: updates landing while a frame is pending join that frame
// instead of rebuilding once each.
func (m *Model) requestFrameCmd() tea.Cmd {
	if m.framePending {
		return nil
	}
	m.framePending = true
	ready := make(chan struct{})
	m.scheduler.Schedule(func() { close(ready) })
	return func() tea.Msg {
		<-ready
		return frameMsg{}
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		m.scheduler.Stop()
		return true, tea.Quit

	case KeyRefresh:
		return true, m.fetchCmd()

	case KeyCycleMetric:
		m.metric = nextMetric(m.metric)
		m.locked = -1
		m.hover = nil
		return true, m.requestFrameCmd()

	case KeyDensity:
		if m.viewMode == ViewDensity {
			m.viewMode = ViewDetail
		} else {
			m.viewMode = ViewDensity
		}
		return true, m.requestFrameCmd()
	}

	// Range selection: number keys in ascending range order.
	if names := timeseries.RangeNames(); len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		idx := int(key[0] - '1')
		if idx < len(names) && names[idx] != m.rangeName {
			m.rangeName = names[idx]
			m.hover = nil
			return true, m.fetchCmd()
		}
		return true, nil
	}

	switch m.viewMode {
	case ViewCards:
		return m.handleCardsKey(key)
	case ViewDetail:
		return m.handleDetailKey(key)
	case ViewDensity:
		if key == KeyCollapse {
			m.viewMode = ViewDetail
			return true, nil
		}
	}
	return false, nil
}

func (m *Model) handleCardsKey(key string) (bool, tea.Cmd) {
	switch key {
	case KeySelectPrev, KeySelectPrevK:
		if m.selected > 0 {
			m.selected--
		}
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		if m.selected < len(m.resources)-1 {
			m.selected++
		}
		return true, nil

	case KeyExpand:
		if len(m.resources) > 0 {
			m.viewMode = ViewDetail
			return true, m.requestFrameCmd()
		}
		return true, nil
	}
	return false, nil
}

func (m *Model) handleDetailKey(key string) (bool, tea.Cmd) {
	switch key {
	case KeyCollapse:
		m.viewMode = ViewCards
		m.hover = nil
		m.locked = -1
		return true, nil

	case KeyCursorLeft, KeyCursorLeftH:
		m.cursorCol--
		m.clampCursor()
		m.resolveHover()
		return true, nil

	case KeyCursorRight, KeyCursorRightL:
		m.cursorCol++
		m.clampCursor()
		m.resolveHover()
		return true, nil

	case KeySelectPrev, KeySelectPrevK:
		m.cursorRow--
		m.clampCursor()
		m.resolveHover()
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		m.cursorRow++
		m.clampCursor()
		m.resolveHover()
		return true, nil

	case KeyExpand, KeyToggleLock:
		if m.hover != nil && m.hover.FocusedIndex >= 0 {
			m.locked = render.ToggleLock(m.locked, m.hover.FocusedIndex, len(m.chartInput.Series))
			return true, m.requestFrameCmd()
		}
		return true, nil
	}
	return false, nil
}

func (m *Model) clampCursor() {
	g := m.chartGeometry()
	if m.cursorCol < 0 {
		m.cursorCol = 0
	}
	if g.Width > 0 && m.cursorCol >= g.Width {
		m.cursorCol = g.Width - 1
	}
	if m.cursorRow < 0 {
		m.cursorRow = 0
	}
	if g.Height > 0 && m.cursorRow >= g.Height {
		m.cursorRow = g.Height - 1
	}
}

// resolveHover recomputes the tooltip for the current cursor cell and
// re-emphasizes the chart when the focused series changed.
func (m *Model) resolveHover() {
	resolver := render.Resolver{ProximityRows: 2, MaxRows: 8}
	prev := -1
	if m.hover != nil {
		prev = m.hover.FocusedIndex
	}
	m.hover = resolver.Resolve(m.cursorCol, m.cursorRow, m.chartInput)
	cur := -1
	if m.hover != nil {
		cur = m.hover.FocusedIndex
	}
	if cur != prev {
		m.rebuildChart()
	}
}

// rebuild recomputes the cached chart and density output from the
// current data. Runs only on frame ticks.
func (m *Model) rebuild() {
	m.rebuildChart()
	m.rebuildDensity()
}

func (m *Model) rebuildChart() {
	g := m.chartGeometry()
	series := m.chartSeries(g)

	if !render.ValidLock(m.locked, len(series)) {
		m.locked = -1
	}
	active := m.locked
	if active < 0 && m.hover != nil {
		active = m.hover.FocusedIndex
	}

	m.chartInput = render.ChartInput{
		Series:      series,
		Geometry:    g,
		ActiveIndex: active,
	}

	kind := render.ChooseBackend(len(series), render.TotalPoints(series), m.cfg.Charts.BackendThreshold)
	m.chartCache = render.NewBackend(kind).Render(m.chartInput)
}

func (m *Model) rebuildDensity() {
	var series []timeseries.Series
	for _, res := range m.resources {
		points := m.data[res.ID][m.metric]
		series = append(series, timeseries.Series{
			ID:     res.ID,
			Name:   res.Name,
			Points: points,
		})
	}
	m.densityCache = render.BuildDensity(series, m.window).Render(m.densityLabelWidth())
}

// chartSeries shapes the raw fetched points for drawing: clip to the
// window, downsample to the column budget, then split on gaps.
func (m *Model) chartSeries(g render.Geometry) []render.ChartSeries {
	var out []render.ChartSeries
	for i, res := range m.resources {
		points := timeseries.Clip(m.data[res.ID][m.metric], m.window)
		if len(points) == 0 {
			continue
		}
		points = timeseries.Downsample(points, timeseries.BudgetForWidth(g.Width))
		threshold := timeseries.InferGapThreshold(points, m.window.RangeMs)
		segments := timeseries.SegmentGaps(points, threshold, m.window.StartMs, true)
		out = append(out, render.ChartSeries{
			ID:       res.ID,
			Name:     res.Name,
			Color:    string(render.SeriesColor("", i)),
			Segments: segments,
		})
	}
	return out
}

func (m *Model) chartGeometry() render.Geometry {
	width := m.width - 2
	if width < 16 {
		width = 16
	}
	height := m.height - chromeHeight
	if height < 4 {
		height = 4
	}

	g := render.Geometry{
		Width:  width,
		Height: height,
		Window: m.window,
		YMode:  render.YModePercent,
	}
	if !metricIsPercent(m.metric) {
		g.YMode = render.YModeAuto
		g.YMax = m.metricMax()
	}
	return g
}

func (m *Model) metricMax() float64 {
	var max float64
	for _, res := range m.resources {
		for _, p := range timeseries.Clip(m.data[res.ID][m.metric], m.window) {
			if p.Value > max {
				max = p.Value
			}
		}
	}
	return max
}

// SelectedResource returns the currently selected resource, if any.
func (m Model) SelectedResource() (api.Resource, bool) {
	if m.selected >= 0 && m.selected < len(m.resources) {
		return m.resources[m.selected], true
	}
	return api.Resource{}, false
}

// SecondsSinceUpdate returns how many seconds have passed since the
// last successful fetch.
func (m Model) SecondsSinceUpdate() int {
	if m.lastFetch.IsZero() {
		return 0
	}
	return int(time.Since(m.lastFetch).Seconds())
}
