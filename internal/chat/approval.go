package chat

// ContinuationFunc issues the hidden follow-up request that asks the
// assistant to pick up after approved tools ran. It receives the message
// whose approval set was exhausted.
type ContinuationFunc func(messageID string)

// Gate tracks commands awaiting explicit user approval and fires a
// single continuation request when a message's approval set empties.
type Gate struct {
	onContinuation ContinuationFunc
}

// NewGate creates an approval gate. A nil continuation is allowed for
// callers that only need the bookkeeping.
func NewGate(onContinuation ContinuationFunc) *Gate {
	return &Gate{onContinuation: onContinuation}
}

// Resolve removes the approval identified by toolID from the message
// and appends the corresponding tool call (the executed command's
// output, or the skip record). Returns the updated message and whether
// an approval was actually removed.
//
// When the removal empties a previously non-empty approval set, exactly
// one continuation fires. Resolving against an already-empty set is a
// no-op, so double-resolution cannot double-fire.
func (g *Gate) Resolve(msg Message, toolID string, call ToolCall) (Message, bool) {
	idx := -1
	for i, pa := range msg.PendingApprovals {
		if pa.ToolID == toolID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return msg, false
	}

	out := msg
	out.PendingApprovals = append(
		append([]PendingApproval(nil), msg.PendingApprovals[:idx]...),
		msg.PendingApprovals[idx+1:]...)
	out.ToolCalls = append(append([]ToolCall(nil), msg.ToolCalls...), call)

	if len(out.PendingApprovals) == 0 && g.onContinuation != nil {
		g.onContinuation(out.ID)
	}
	return out, true
}

// Skip resolves an approval without running it, recording a skipped
// tool call so the transcript shows what the user declined.
func (g *Gate) Skip(msg Message, toolID string) (Message, bool) {
	var name, command string
	for _, pa := range msg.PendingApprovals {
		if pa.ToolID == toolID {
			name = pa.ToolName
			command = pa.Command
			break
		}
	}
	return g.Resolve(msg, toolID, ToolCall{
		ID:      toolID,
		Name:    name,
		Input:   command,
		Output:  "Skipped by user",
		Success: false,
	})
}

// MarkExecuting flags one pending approval as running so the UI can
// show progress while the tool client round-trips.
func MarkExecuting(msg Message, toolID string, executing bool) Message {
	out := msg
	out.PendingApprovals = append([]PendingApproval(nil), msg.PendingApprovals...)
	for i := range out.PendingApprovals {
		if out.PendingApprovals[i].ToolID == toolID {
			out.PendingApprovals[i].IsExecuting = executing
		}
	}
	return out
}

// Resolved reports whether the message's chat turn has no outstanding
// approvals.
func Resolved(msg Message) bool {
	return len(msg.PendingApprovals) == 0
}
