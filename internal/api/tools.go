package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sightlinehq/sightline/internal/errors"
)

// ToolRequest executes one user-approved command. It is only ever sent
// after the approval gate captured explicit consent.
type ToolRequest struct {
	Command    string `json:"command"`
	TargetType string `json:"target_type,omitempty"`
	TargetID   string `json:"target_id,omitempty"`
	RunOnHost  bool   `json:"run_on_host"`
	VMID       string `json:"vmid,omitempty"`
	TargetHost string `json:"target_host,omitempty"`
}

// ToolResponse is the executed command's outcome. A failed command is a
// normal response, not a transport error: its output still becomes part
// of the visible tool-call record.
type ToolResponse struct {
	Output  string `json:"output"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ExecuteTool runs an approved command on the backend.
func (c *Client) ExecuteTool(ctx context.Context, req ToolRequest) (*ToolResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTool,
			"Failed to encode tool request", "")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/ai/tools/execute", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTool,
			"Failed to build tool request", "")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTool,
			"Tool execution request failed",
			"The command may not have run; check the server")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrTool,
			fmt.Sprintf("Tool execution returned status %d", resp.StatusCode),
			"The command may not have run; check the server")
	}

	var out ToolResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTool,
			"Failed to decode tool response", "")
	}
	return &out, nil
}
