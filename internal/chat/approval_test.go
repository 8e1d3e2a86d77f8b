package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msgWithApprovals(ids ...string) Message {
	msg := Message{ID: "m1", Role: RoleAssistant}
	for _, id := range ids {
		msg.PendingApprovals = append(msg.PendingApprovals, PendingApproval{
			ToolID:   id,
			ToolName: "run_command",
			Command:  "echo " + id,
		})
	}
	return msg
}

func TestGateResolveTriggersContinuationOnExhaustion(t *testing.T) {
	var continuations []string
	gate := NewGate(func(messageID string) {
		continuations = append(continuations, messageID)
	})

	msg := msgWithApprovals("t1", "t2")

	// Resolving the first leaves one pending: no continuation.
	msg, ok := gate.Resolve(msg, "t1", ToolCall{ID: "t1", Output: "ok", Success: true})
	require.True(t, ok)
	assert.Len(t, msg.PendingApprovals, 1)
	assert.Empty(t, continuations)

	// Resolving the second empties the set: exactly one continuation.
	msg, ok = gate.Resolve(msg, "t2", ToolCall{ID: "t2", Output: "ok", Success: true})
	require.True(t, ok)
	assert.Empty(t, msg.PendingApprovals)
	assert.Equal(t, []string{"m1"}, continuations)

	// Resolving an already-empty set does nothing.
	msg, ok = gate.Resolve(msg, "t2", ToolCall{})
	assert.False(t, ok)
	assert.Equal(t, []string{"m1"}, continuations, "no double continuation")
	assert.Len(t, msg.ToolCalls, 2)
}

func TestGateResolveAppendsToolCall(t *testing.T) {
	gate := NewGate(nil)
	msg := msgWithApprovals("t1")

	msg, ok := gate.Resolve(msg, "t1", ToolCall{
		ID: "t1", Name: "run_command", Input: "echo t1", Output: "t1\n", Success: true,
	})

	require.True(t, ok)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "t1\n", msg.ToolCalls[0].Output)
	assert.True(t, Resolved(msg))
}

func TestGateResolveUnknownToolID(t *testing.T) {
	fired := false
	gate := NewGate(func(string) { fired = true })
	msg := msgWithApprovals("t1")

	out, ok := gate.Resolve(msg, "nope", ToolCall{})

	assert.False(t, ok)
	assert.Equal(t, msg.PendingApprovals, out.PendingApprovals)
	assert.False(t, fired)
}

func TestGateSkipRecordsDeclinedCommand(t *testing.T) {
	var continuations int
	gate := NewGate(func(string) { continuations++ })
	msg := msgWithApprovals("t1")

	msg, ok := gate.Skip(msg, "t1")

	require.True(t, ok)
	assert.Empty(t, msg.PendingApprovals)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "Skipped by user", msg.ToolCalls[0].Output)
	assert.False(t, msg.ToolCalls[0].Success)
	assert.Equal(t, "echo t1", msg.ToolCalls[0].Input)
	assert.Equal(t, 1, continuations, "skips count toward exhaustion too")
}

func TestGateFiresPerExhaustion(t *testing.T) {
	var continuations int
	gate := NewGate(func(string) { continuations++ })

	// First round of approvals.
	msg := msgWithApprovals("t1")
	msg, _ = gate.Resolve(msg, "t1", ToolCall{ID: "t1"})
	assert.Equal(t, 1, continuations)

	// A later event adds a fresh approval; emptying it fires again.
	msg.PendingApprovals = append(msg.PendingApprovals, PendingApproval{ToolID: "t2"})
	msg, _ = gate.Resolve(msg, "t2", ToolCall{ID: "t2"})
	assert.Equal(t, 2, continuations)
}

func TestMarkExecuting(t *testing.T) {
	msg := msgWithApprovals("t1", "t2")

	out := MarkExecuting(msg, "t2", true)

	assert.False(t, out.PendingApprovals[0].IsExecuting)
	assert.True(t, out.PendingApprovals[1].IsExecuting)
	assert.False(t, msg.PendingApprovals[1].IsExecuting, "input untouched")

	out = MarkExecuting(out, "t2", false)
	assert.False(t, out.PendingApprovals[1].IsExecuting)
}

func TestResolved(t *testing.T) {
	assert.True(t, Resolved(Message{}))
	assert.False(t, Resolved(msgWithApprovals("t1")))
}
