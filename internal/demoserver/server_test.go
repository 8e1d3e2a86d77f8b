package demoserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sightlinehq/sightline/internal/logger"
	"github.com/sightlinehq/sightline/internal/stream"
	"github.com/sightlinehq/sightline/internal/timeseries"
)

func testServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	s := New(logger.Noop(), opts...)
	srv := httptest.NewServer(s.Engine())
	t.Cleanup(srv.Close)
	return srv
}

func TestStoreAppendTrimsRetention(t *testing.T) {
	s := NewStore()
	now := time.Now().UnixMilli()

	s.Append("cpu", timeseries.Point{TimestampMs: now - retention.Milliseconds() - 1000, Value: 1})
	s.Append("cpu", timeseries.Point{TimestampMs: now, Value: 2})

	points := s.Range("cpu", 0, now)
	require.Len(t, points, 1)
	assert.Equal(t, 2.0, points[0].Value)
}

func TestStoreRangeInclusive(t *testing.T) {
	s := NewStore()
	for i := int64(0); i < 5; i++ {
		s.Append("cpu", timeseries.Point{TimestampMs: i * 1000, Value: float64(i)})
	}

	points := s.Range("cpu", 1000, 3000)
	require.Len(t, points, 3)
	assert.Equal(t, int64(1000), points[0].TimestampMs)
	assert.Equal(t, int64(3000), points[2].TimestampMs)
}

func TestBackfillCoversAllMetricsWithGaps(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.Backfill(now)

	window := timeseries.WindowFor("24h", now)
	for _, metric := range []string{"cpu", "memory", "disk", "net"} {
		points := s.Range(metric, window.StartMs, window.EndMs)
		require.NotEmpty(t, points, metric)

		// The daily outage leaves at least one gap well above the
		// one-minute cadence.
		var maxGap int64
		for i := 1; i < len(points); i++ {
			if d := points[i].TimestampMs - points[i-1].TimestampMs; d > maxGap {
				maxGap = d
			}
		}
		assert.Greater(t, maxGap, int64(20*60*1000), metric)
	}
}

func TestBackfillValuesStayBounded(t *testing.T) {
	s := NewStore()
	s.Backfill(time.Now())

	for _, metric := range []string{"cpu", "memory", "disk"} {
		for _, p := range s.Range(metric, 0, time.Now().UnixMilli()) {
			assert.GreaterOrEqual(t, p.Value, 0.0, metric)
			assert.LessOrEqual(t, p.Value, 100.0, metric)
		}
	}
}

func TestResourcesEndpoint(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api/resources")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Resources []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
			Name string `json:"name"`
		} `json:"resources"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Resources, 1)
	assert.Equal(t, "node", body.Resources[0].Type)
	assert.NotEmpty(t, body.Resources[0].ID)
}

func TestHistoryEndpoint(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api/metrics/history?metric=cpu&range=24h&maxPoints=100")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Points []struct {
			Timestamp int64   `json:"timestamp"`
			Value     float64 `json:"value"`
		} `json:"points"`
		Source string `json:"source"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.NotEmpty(t, body.Points)
	assert.LessOrEqual(t, len(body.Points), 100, "maxPoints caps the response")
	assert.Equal(t, "memory", body.Source)

	for i := 1; i < len(body.Points); i++ {
		assert.Less(t, body.Points[i-1].Timestamp, body.Points[i].Timestamp, "points stay sorted")
	}
}

func TestHistoryShortRangeIsLive(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api/metrics/history?metric=cpu&range=5m")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Source string `json:"source"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "live", body.Source)
}

func TestHistoryRejectsBadInput(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api/metrics/history?metric=cpu&range=3w")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/metrics/history?metric=bogus&range=1h")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthMiddleware(t *testing.T) {
	srv := testServer(t, WithToken("secret"))

	resp, err := http.Get(srv.URL + "/api/resources")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/resources", nil)
	req.Header.Set("X-API-Token", "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// collectEvents runs one execute round trip and parses the SSE body.
func collectEvents(t *testing.T, url, prompt string) []stream.Event {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{"prompt": prompt})
	resp, err := http.Post(url+"/api/ai/execute", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	var events []stream.Event
	parser := stream.NewParser(func(ev stream.Event) {
		events = append(events, ev)
	}, logger.Noop())

	buf := make([]byte, 512)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			parser.Feed(buf[:n])
		}
		if readErr != nil {
			break
		}
	}
	parser.Flush()
	return events
}

func eventTypes(events []stream.Event) []string {
	var types []string
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

func TestExecuteStreamsAnalysis(t *testing.T) {
	srv := testServer(t)

	events := collectEvents(t, srv.URL, "how is the host doing?")
	types := eventTypes(events)

	assert.Contains(t, types, "thinking")
	assert.Contains(t, types, "tool_start")
	assert.Contains(t, types, "tool_end")
	assert.Contains(t, types, "content")
	assert.Contains(t, types, "complete")
	assert.Equal(t, "done", types[len(types)-1], "done is always the final event")
}

func TestExecuteRunPromptAsksForApproval(t *testing.T) {
	srv := testServer(t)

	events := collectEvents(t, srv.URL, "run uptime")

	var approval *stream.Event
	for i := range events {
		if events[i].Type == "approval_needed" {
			approval = &events[i]
			break
		}
	}
	require.NotNil(t, approval)

	var data struct {
		Command   string `json:"command"`
		RunOnHost bool   `json:"run_on_host"`
		ToolID    string `json:"tool_id"`
	}
	require.NoError(t, json.Unmarshal(approval.Data, &data))
	assert.Equal(t, "uptime", data.Command)
	assert.True(t, data.RunOnHost)
	assert.NotEmpty(t, data.ToolID)
}

func TestExecuteContinuationAcknowledges(t *testing.T) {
	srv := testServer(t)

	events := collectEvents(t, srv.URL, "All requested commands have finished; continue with their results.")
	types := eventTypes(events)

	assert.Contains(t, types, "content")
	assert.NotContains(t, types, "approval_needed")
	assert.Equal(t, "done", types[len(types)-1])
}

func TestToolExecuteRunsCommand(t *testing.T) {
	srv := testServer(t)

	payload, _ := json.Marshal(map[string]interface{}{"command": "echo hello", "run_on_host": true})
	resp, err := http.Post(srv.URL+"/api/ai/tools/execute", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Output  string `json:"output"`
		Success bool   `json:"success"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "hello", strings.TrimSpace(body.Output))
}

func TestToolExecuteReportsFailure(t *testing.T) {
	srv := testServer(t)

	payload, _ := json.Marshal(map[string]string{"command": "exit 3"})
	resp, err := http.Post(srv.URL+"/api/ai/tools/execute", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Contains(t, body.Error, "exit status 3")
}

func TestToolExecuteRejectsEmptyCommand(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Post(srv.URL+"/api/ai/tools/execute", "application/json",
		bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
