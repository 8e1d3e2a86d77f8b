package demoserver

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// assistant scripts SSE responses so the chat UI can be exercised
// end to end, including the approval flow.
type assistant struct {
	store *Store
}

// executeRequest mirrors the chat client's request shape.
type executeRequest struct {
	Prompt  string `json:"prompt"`
	History []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"history"`
}

// frameDelay spaces SSE frames so streaming is visible in the UI.
const frameDelay = 120 * time.Millisecond

// respond writes the scripted event stream for one prompt. emit must
// flush after each frame.
func (a *assistant) respond(req executeRequest, emit func(eventType string, data interface{})) {
	prompt := strings.TrimSpace(req.Prompt)
	lower := strings.ToLower(prompt)

	switch {
	case strings.HasPrefix(lower, "run "):
		a.respondApproval(strings.TrimSpace(prompt[4:]), emit)
	case strings.Contains(lower, "finished; continue"):
		a.respondContinuation(emit)
	default:
		a.respondAnalysis(emit)
	}

	emit("done", map[string]interface{}{
		"session_id": fmt.Sprintf("demo-%d", time.Now().UnixNano()),
	})
}

// respondAnalysis narrates the current local metrics with a tool round.
func (a *assistant) respondAnalysis(emit func(string, interface{})) {
	emit("thinking", map[string]string{"text": "Looking at the latest samples for this host."})
	time.Sleep(frameDelay)

	emit("processing", map[string]string{"message": "collecting metrics"})
	time.Sleep(frameDelay)

	emit("tool_start", map[string]string{
		"id":    "tool-1",
		"name":  "get_metrics",
		"input": `{"metrics":["cpu","memory","disk","net"]}`,
	})
	time.Sleep(frameDelay)

	snapshot := a.snapshot()
	emit("tool_end", map[string]interface{}{
		"id":      "tool-1",
		"name":    "get_metrics",
		"output":  snapshot,
		"success": true,
	})
	time.Sleep(frameDelay)

	// Cumulative content: each frame carries the full text so far.
	full := "Here's the current picture: " + snapshot +
		" Nothing looks alarming. Ask me to `run <command>` if you want to dig deeper."
	emit("content", map[string]string{"text": full[:len(full)/2]})
	time.Sleep(frameDelay)
	emit("content", map[string]string{"text": full})
	time.Sleep(frameDelay)

	emit("complete", map[string]interface{}{
		"model":         "demo-scripted",
		"input_tokens":  128,
		"output_tokens": 96,
	})
}

// respondApproval asks the user to approve the requested command.
func (a *assistant) respondApproval(command string, emit func(string, interface{})) {
	emit("content", map[string]string{
		"text": "I can run that for you, but it needs your approval first.",
	})
	time.Sleep(frameDelay)

	emit("approval_needed", map[string]interface{}{
		"approval_id": fmt.Sprintf("ap-%d", time.Now().UnixNano()),
		"tool_id":     fmt.Sprintf("tool-%d", time.Now().UnixNano()),
		"tool_name":   "run_command",
		"command":     command,
		"run_on_host": true,
	})
	time.Sleep(frameDelay)

	emit("complete", map[string]interface{}{
		"model":         "demo-scripted",
		"input_tokens":  64,
		"output_tokens": 24,
	})
}

// respondContinuation acknowledges finished tool runs.
func (a *assistant) respondContinuation(emit func(string, interface{})) {
	emit("content", map[string]string{
		"text": "The command finished; its output is recorded above. Anything else to check?",
	})
	time.Sleep(frameDelay)

	emit("complete", map[string]interface{}{
		"model":         "demo-scripted",
		"input_tokens":  48,
		"output_tokens": 20,
	})
}

func (a *assistant) snapshot() string {
	var parts []string
	for _, metric := range []string{"cpu", "memory", "disk"} {
		if p, ok := a.store.Latest(metric); ok {
			parts = append(parts, fmt.Sprintf("%s %.1f%%", metric, p.Value))
		}
	}
	if p, ok := a.store.Latest("net"); ok {
		parts = append(parts, fmt.Sprintf("net %.0f B/s", p.Value))
	}
	if len(parts) == 0 {
		return "no samples collected yet."
	}
	return strings.Join(parts, ", ") + "."
}

// writeFrame serializes one SSE frame.
func writeFrame(w io.Writer, eventType string, data interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": data,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
