// Package chat holds the assistant conversation model: message state,
// the event reducer that folds stream events into it, and the approval
// gate for tool calls that need explicit user sign-off.
package chat

// Role identifies a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolCall is a completed tool invocation attached to a message.
type ToolCall struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Input   string `json:"input,omitempty"`
	Output  string `json:"output,omitempty"`
	Success bool   `json:"success"`
}

// PendingTool is a tool invocation that has started but not finished.
// Transient entries are synthetic status rows (from "processing"
// events), not real tool runs.
type PendingTool struct {
	ID        string
	Name      string
	Input     string
	Transient bool
}

// PendingApproval is a command the assistant wants to run that is
// waiting for the user. IsExecuting flips while the approved command
// runs so the UI can show progress on the right row.
type PendingApproval struct {
	ApprovalID  string `json:"approval_id"`
	ToolID      string `json:"tool_id"`
	ToolName    string `json:"tool_name"`
	Command     string `json:"command"`
	RunOnHost   bool   `json:"run_on_host"`
	TargetHost  string `json:"target_host,omitempty"`
	IsExecuting bool   `json:"-"`
}

// Usage is the model/token accounting attached when a turn completes.
type Usage struct {
	Model        string `json:"model,omitempty"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
}

// Message is one conversation entry. Streaming messages mutate in place
// (matched by ID) as events arrive; once IsStreaming drops, only
// approval bookkeeping may still touch it.
type Message struct {
	ID               string
	Role             Role
	Content          string
	Thinking         string
	PendingTools     []PendingTool
	ToolCalls        []ToolCall
	PendingApprovals []PendingApproval
	IsStreaming      bool
	Usage            *Usage
}

// Event data payloads, mirroring the backend protocol.

// ContentData carries the cumulative message text; each content event
// replaces the previous text rather than appending a delta.
type ContentData struct {
	Text string `json:"text"`
}

// ThinkingData carries extended-reasoning text, kept out of Content.
type ThinkingData struct {
	Text string `json:"text"`
}

// ToolStartData announces a tool invocation.
type ToolStartData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Input string `json:"input"`
}

// ToolEndData reports a finished tool invocation.
type ToolEndData struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Input   string `json:"input,omitempty"`
	Output  string `json:"output,omitempty"`
	Success bool   `json:"success"`
}

// ApprovalNeededData asks the user to approve a command.
type ApprovalNeededData struct {
	ApprovalID string `json:"approval_id"`
	ToolID     string `json:"tool_id"`
	ToolName   string `json:"tool_name"`
	Command    string `json:"command"`
	RunOnHost  bool   `json:"run_on_host"`
	TargetHost string `json:"target_host,omitempty"`
}

// ProcessingData is a transient status line ("analyzing metrics...").
type ProcessingData struct {
	Message string `json:"message"`
}

// ErrorData carries a stream-level failure.
type ErrorData struct {
	Message string `json:"message"`
}

// CompleteData closes a turn with usage and, when tools ran entirely
// server-side, the authoritative tool-call list.
type CompleteData struct {
	Model        string     `json:"model,omitempty"`
	InputTokens  int        `json:"input_tokens,omitempty"`
	OutputTokens int        `json:"output_tokens,omitempty"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
}

// DoneData is the terminal event. Synthetic is set on locally
// synthesized done events (stream ended without one from the server).
type DoneData struct {
	SessionID    string `json:"session_id,omitempty"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	Synthetic    bool   `json:"synthetic,omitempty"`
}
