package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sightlinehq/sightline/internal/errors"
)

// ExecuteRequest starts one assistant turn.
type ExecuteRequest struct {
	Prompt     string          `json:"prompt"`
	TargetType string          `json:"target_type,omitempty"`
	TargetID   string          `json:"target_id,omitempty"`
	Context    string          `json:"context,omitempty"`
	History    []HistoryEntry  `json:"history,omitempty"`
	Session    json.RawMessage `json:"session,omitempty"`
}

// HistoryEntry is one prior conversation turn sent back for context.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenStream POSTs an execute request and returns the SSE body for a
// stream.Session to consume. A non-2xx response surfaces as a single
// hard error before any streaming begins.
func (c *Client) OpenStream(ctx context.Context, req ExecuteRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to encode execute request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/ai/execute", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "Failed to build execute request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	c.authorize(httpReq)

	// Streaming requests bypass the client-wide timeout; the session's
	// watchdog bounds the stream lifetime instead.
	streamClient := &http.Client{Transport: c.http.Transport}
	resp, err := streamClient.Do(httpReq)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrStream,
			"Failed to open assistant stream",
			"Check that the server is reachable")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.New(errors.ErrStream,
			fmt.Sprintf("Assistant stream rejected with status %d: %s",
				resp.StatusCode, string(bytes.TrimSpace(detail))),
			"The stream never started; retry the prompt")
	}

	return resp.Body, nil
}
