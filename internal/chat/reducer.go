package chat

import (
	"encoding/json"

	"github.com/sightlinehq/sightline/internal/stream"
)

// Reduce folds one stream event into a message and returns the updated
// message. It is pure: the input message is not mutated, and unknown
// event kinds pass through untouched so newer servers don't break older
// clients.
func Reduce(msg Message, ev stream.Event) Message {
	out := msg
	out.PendingTools = append([]PendingTool(nil), msg.PendingTools...)
	out.ToolCalls = append([]ToolCall(nil), msg.ToolCalls...)
	out.PendingApprovals = append([]PendingApproval(nil), msg.PendingApprovals...)

	switch ev.Type {
	case "content":
		var data ContentData
		if decode(ev.Data, &data) {
			// Cumulative text: replace, don't append.
			out.Content = data.Text
		}

	case "thinking":
		var data ThinkingData
		if decode(ev.Data, &data) {
			out.Thinking += data.Text
		}

	case "tool_start":
		var data ToolStartData
		if decode(ev.Data, &data) {
			// A real tool run supersedes any transient status rows.
			out.PendingTools = dropTransient(out.PendingTools)
			out.PendingTools = append(out.PendingTools, PendingTool{
				ID:    data.ID,
				Name:  data.Name,
				Input: data.Input,
			})
		}

	case "tool_end":
		var data ToolEndData
		if decode(ev.Data, &data) {
			out.PendingTools = removeByName(out.PendingTools, data.Name)
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:      data.ID,
				Name:    data.Name,
				Input:   data.Input,
				Output:  data.Output,
				Success: data.Success,
			})
		}

	case "approval_needed":
		var data ApprovalNeededData
		if decode(ev.Data, &data) {
			out.PendingApprovals = append(out.PendingApprovals, PendingApproval{
				ApprovalID: data.ApprovalID,
				ToolID:     data.ToolID,
				ToolName:   data.ToolName,
				Command:    data.Command,
				RunOnHost:  data.RunOnHost,
				TargetHost: data.TargetHost,
			})
		}

	case "processing":
		var data ProcessingData
		if decode(ev.Data, &data) {
			// One transient status row at a time.
			out.PendingTools = dropTransient(out.PendingTools)
			out.PendingTools = append(out.PendingTools, PendingTool{
				Name:      data.Message,
				Transient: true,
			})
		}

	case "complete":
		var data CompleteData
		decode(ev.Data, &data)
		out.IsStreaming = false
		out.Usage = &Usage{
			Model:        data.Model,
			InputTokens:  data.InputTokens,
			OutputTokens: data.OutputTokens,
		}
		// Backfill the authoritative tool-call list only when nothing
		// was captured live.
		if len(out.ToolCalls) == 0 && len(data.ToolCalls) > 0 {
			out.ToolCalls = append([]ToolCall(nil), data.ToolCalls...)
		}

	case "done":
		out.IsStreaming = false
		out.PendingTools = nil

	case "error":
		var data ErrorData
		decode(ev.Data, &data)
		out.IsStreaming = false
		out.Content = "Error: " + data.Message

	default:
		// Unknown event kinds are no-ops for forward compatibility.
	}

	return out
}

func decode(raw json.RawMessage, v interface{}) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// removeByName drops the first pending tool with the given name,
// matching how the backend reports tool_end.
func removeByName(tools []PendingTool, name string) []PendingTool {
	for i, t := range tools {
		if t.Name == name && !t.Transient {
			return append(tools[:i:i], tools[i+1:]...)
		}
	}
	return tools
}

func dropTransient(tools []PendingTool) []PendingTool {
	out := tools[:0:0]
	for _, t := range tools {
		if !t.Transient {
			out = append(out, t)
		}
	}
	return out
}
