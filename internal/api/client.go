// Package api wraps the monitoring backend's HTTP surface: metric
// history fetches, the assistant execution stream, and approved tool
// execution.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sightlinehq/sightline/internal/errors"
	"github.com/sightlinehq/sightline/internal/logger"
	"github.com/sightlinehq/sightline/internal/timeseries"
)

// Source tags where the backend served history from. All three render
// identically; the value only surfaces as an informational badge.
type Source string

const (
	SourceStore  Source = "store"
	SourceMemory Source = "memory"
	SourceLive   Source = "live"
)

// HistoryRequest identifies one metric series fetch.
type HistoryRequest struct {
	ResourceType string // "node", "vm", "container", ...
	ResourceID   string
	Metric       string // "cpu", "memory", "disk", "net"
	Range        string // relative range name, e.g. "1h"
	MaxPoints    int    // 0 means server default
}

// apiPoint is the wire shape of one history sample.
type apiPoint struct {
	Timestamp int64    `json:"timestamp"`
	Value     float64  `json:"value"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
}

// HistoryResponse is a fetched series plus its source badge.
type HistoryResponse struct {
	Points []timeseries.Point
	Source Source
}

// Client talks to the monitoring backend.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     logger.Logger
}

// NewClient creates a backend client. An empty token disables the auth
// header (the demo server accepts anonymous requests).
func NewClient(baseURL, token string, log logger.Logger) *Client {
	if log == nil {
		log = logger.Noop()
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// History fetches one metric series.
func (c *Client) History(ctx context.Context, req HistoryRequest) (*HistoryResponse, error) {
	q := url.Values{}
	q.Set("type", req.ResourceType)
	q.Set("id", req.ResourceID)
	q.Set("metric", req.Metric)
	q.Set("range", req.Range)
	if req.MaxPoints > 0 {
		q.Set("maxPoints", fmt.Sprintf("%d", req.MaxPoints))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/metrics/history?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to build history request")
	}
	c.authorize(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "Metrics history request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrAPI,
			fmt.Sprintf("Metrics history returned status %d", resp.StatusCode),
			"Check the server URL and token with 'sightline login'")
	}

	var body struct {
		Points []apiPoint `json:"points"`
		Source Source     `json:"source"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "Failed to decode history response")
	}

	out := &HistoryResponse{Source: body.Source}
	for _, p := range body.Points {
		out.Points = append(out.Points, timeseries.Point{
			TimestampMs: p.Timestamp,
			Value:       p.Value,
		})
	}
	return out, nil
}

// Resource is one monitored resource the backend knows about.
type Resource struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// Resources lists the monitored resources.
func (c *Client) Resources(ctx context.Context) ([]Resource, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/resources", nil)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to build resources request")
	}
	c.authorize(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "Resources request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrAPI,
			fmt.Sprintf("Resources returned status %d", resp.StatusCode),
			"Check the server URL and token with 'sightline login'")
	}

	var body struct {
		Resources []Resource `json:"resources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "Failed to decode resources response")
	}
	return body.Resources, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("X-API-Token", c.token)
	}
}
