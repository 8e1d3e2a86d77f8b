package chatui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sightlinehq/sightline/internal/chat"
	"github.com/sightlinehq/sightline/internal/render"
)

var (
	chatTitleStyle = lipgloss.NewStyle().
			Foreground(render.ColorGraph).
			Bold(true)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(render.ColorHealthy).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(render.ColorGraph).
				Bold(true)

	thinkingStyle = lipgloss.NewStyle().
			Foreground(render.ColorTextMuted).
			Italic(true)

	pendingStyle = lipgloss.NewStyle().
			Foreground(render.ColorWarning)

	toolOKStyle = lipgloss.NewStyle().
			Foreground(render.ColorHealthy)

	toolFailStyle = lipgloss.NewStyle().
			Foreground(render.ColorCritical)

	usageStyle = lipgloss.NewStyle().
			Foreground(render.ColorTextMuted)

	toastStyle = lipgloss.NewStyle().
			Foreground(render.ColorCritical).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(render.ColorTextMuted)
)

// toolOutputLimit caps how much tool output is shown inline.
const toolOutputLimit = 400

// View renders the chat screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(chatTitleStyle.Render("sightline chat"))
	if m.streaming {
		b.WriteString(hintStyle.Render("  streaming… (esc to stop)"))
	}
	b.WriteString("\n\n")

	if m.vpReady {
		b.WriteString(m.vp.View())
	} else {
		b.WriteString(m.renderTranscript())
	}
	b.WriteString("\n")

	if m.toast != "" {
		b.WriteString(toastStyle.Render("⚠ " + m.toast))
		b.WriteString("\n")
	}

	if m.form != nil {
		b.WriteString(m.form.form.View())
	} else {
		b.WriteString(m.input.View())
	}
	return b.String()
}

func (m Model) renderTranscript() string {
	if len(m.messages) == 0 {
		return hintStyle.Render("Ask anything about your nodes, VMs and containers.")
	}

	var parts []string
	for _, msg := range m.messages {
		parts = append(parts, m.renderMessage(msg))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderMessage(msg chat.Message) string {
	var b strings.Builder

	switch msg.Role {
	case chat.RoleUser:
		b.WriteString(userLabelStyle.Render("you"))
	default:
		b.WriteString(assistantLabelStyle.Render("assistant"))
	}
	b.WriteString("\n")

	if msg.Thinking != "" {
		b.WriteString(thinkingStyle.Render(msg.Thinking))
		b.WriteString("\n")
	}

	if msg.Content != "" {
		b.WriteString(msg.Content)
		b.WriteString("\n")
	} else if msg.IsStreaming && msg.Thinking == "" && len(msg.PendingTools) == 0 {
		b.WriteString(hintStyle.Render("…"))
		b.WriteString("\n")
	}

	for _, pt := range msg.PendingTools {
		if pt.Transient {
			b.WriteString(pendingStyle.Render("⋯ " + pt.Name))
		} else {
			b.WriteString(pendingStyle.Render("⚙ running " + pt.Name))
		}
		b.WriteString("\n")
	}

	for _, tc := range msg.ToolCalls {
		b.WriteString(renderToolCall(tc))
	}

	for _, pa := range msg.PendingApprovals {
		if pa.IsExecuting {
			b.WriteString(pendingStyle.Render("⚙ executing: " + pa.Command))
		} else {
			b.WriteString(pendingStyle.Render("? awaiting approval: " + pa.Command))
		}
		b.WriteString("\n")
	}

	if msg.Usage != nil && msg.Usage.Model != "" {
		b.WriteString(usageStyle.Render(fmt.Sprintf("%s · %d in / %d out tokens",
			msg.Usage.Model, msg.Usage.InputTokens, msg.Usage.OutputTokens)))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderToolCall(tc chat.ToolCall) string {
	var b strings.Builder
	if tc.Success {
		b.WriteString(toolOKStyle.Render("✓ " + tc.Name))
	} else {
		b.WriteString(toolFailStyle.Render("✗ " + tc.Name))
	}
	if tc.Input != "" {
		b.WriteString(hintStyle.Render("  " + tc.Input))
	}
	b.WriteString("\n")
	if tc.Output != "" {
		b.WriteString(indent(truncate(tc.Output, toolOutputLimit)))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
