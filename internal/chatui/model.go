// Package chatui is the assistant chat TUI: a prompt input, a scrolling
// transcript fed by the SSE stream, and the approval form for commands
// the assistant wants to run.
package chatui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/sightlinehq/sightline/internal/api"
	"github.com/sightlinehq/sightline/internal/chat"
	"github.com/sightlinehq/sightline/internal/config"
	"github.com/sightlinehq/sightline/internal/logger"
	"github.com/sightlinehq/sightline/internal/stream"
)

// Client is the backend surface the chat UI consumes.
type Client interface {
	OpenStream(ctx context.Context, req api.ExecuteRequest) (io.ReadCloser, error)
	ExecuteTool(ctx context.Context, req api.ToolRequest) (*api.ToolResponse, error)
}

// continuationPrompt is the hidden follow-up sent after all approved
// commands finished, asking the assistant to pick up with the results.
const continuationPrompt = "All requested commands have finished; continue with their results."

// toastDuration is how long a transient notice stays in the status line.
const toastDuration = 5 * time.Second

// activeForm is the approval form currently on screen and the approval
// it belongs to.
type activeForm struct {
	form      *huh.Form
	messageID string
	toolID    string
	approved  bool
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	client Client
	cfg    *config.Config
	log    logger.Logger

	input    textinput.Model
	vp       viewport.Model
	vpReady  bool
	messages []chat.Message

	streaming bool
	session   *stream.Session
	events    chan stream.Event
	cancel    context.CancelFunc

	gate   *chat.Gate
	contCh chan string
	form   *activeForm

	toast   string
	toastAt time.Time

	nextID   int
	width    int
	height   int
	quitting bool
}

// eventMsg carries one stream event into the update loop.
type eventMsg struct {
	ev stream.Event
	ok bool
}

// streamOpenedMsg reports the outcome of opening the SSE stream.
type streamOpenedMsg struct {
	err error
}

// toolResultMsg reports an approved command's outcome.
type toolResultMsg struct {
	messageID string
	toolID    string
	name      string
	command   string
	resp      *api.ToolResponse
	err       error
}

// toastExpiredMsg clears the status line.
type toastExpiredMsg struct{}

// NewModel creates a chat model.
func NewModel(client Client, cfg *config.Config, log logger.Logger) Model {
	if log == nil {
		log = logger.Noop()
	}

	input := textinput.New()
	input.Placeholder = "Ask about your infrastructure…"
	input.CharLimit = 2000
	input.Focus()

	contCh := make(chan string, 1)
	gate := chat.NewGate(func(messageID string) {
		select {
		case contCh <- messageID:
		default:
		}
	})

	return Model{
		client: client,
		cfg:    cfg,
		log:    log,
		input:  input,
		gate:   gate,
		contCh: contCh,
	}
}

// Init focuses the prompt.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		if m.form == nil {
			if handled, cmd := m.handleKey(msg); handled {
				return m, cmd
			}
		}

	case streamOpenedMsg:
		if msg.err != nil {
			m.failStream(msg.err.Error())
			return m, nil
		}
		return m, m.waitEventCmd()

	case eventMsg:
		return m.handleEvent(msg)

	case toolResultMsg:
		return m.handleToolResult(msg)

	case toastExpiredMsg:
		if time.Since(m.toastAt) >= toastDuration {
			m.toast = ""
		}
		return m, nil
	}

	// Forward everything else to the active form, then the widgets.
	var cmds []tea.Cmd
	if m.form != nil {
		formModel, cmd := m.form.form.Update(msg)
		if f, ok := formModel.(*huh.Form); ok {
			m.form.form = f
		}
		cmds = append(cmds, cmd)
		if m.form.form.State == huh.StateCompleted {
			cmds = append(cmds, m.completeForm())
		}
	} else {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		if m.cancel != nil {
			m.cancel()
		}
		return true, tea.Quit

	case "esc":
		if m.streaming && m.cancel != nil {
			// Cooperative cancel; the session still delivers its final
			// done event through the normal path.
			m.cancel()
			return true, nil
		}
		return false, nil

	case "enter":
		prompt := m.input.Value()
		if prompt == "" || m.streaming {
			return true, nil
		}
		m.input.SetValue("")
		return true, m.sendPrompt(prompt, true)
	}
	return false, nil
}

// sendPrompt starts one assistant turn. Visible prompts are appended to
// the transcript; continuation prompts are not.
func (m *Model) sendPrompt(prompt string, visible bool) tea.Cmd {
	if visible {
		m.nextID++
		m.messages = append(m.messages, chat.Message{
			ID:      fmt.Sprintf("u-%d", m.nextID),
			Role:    chat.RoleUser,
			Content: prompt,
		})
	}

	m.nextID++
	assistantID := fmt.Sprintf("a-%d", m.nextID)
	m.messages = append(m.messages, chat.Message{
		ID:          assistantID,
		Role:        chat.RoleAssistant,
		IsStreaming: true,
	})
	m.streaming = true
	m.refreshTranscript()

	events := make(chan stream.Event, 64)
	m.events = events
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	session := stream.NewSession(assistantID, func(ev stream.Event) {
		events <- ev
	}, m.log, stream.WithIdleCeiling(m.cfg.Chat.IdleCeiling))
	m.session = session

	req := api.ExecuteRequest{
		Prompt:  prompt,
		History: m.historyForRequest(),
	}
	client := m.client
	log := m.log

	return func() tea.Msg {
		body, err := client.OpenStream(ctx, req)
		if err != nil {
			return streamOpenedMsg{err: err}
		}
		go func() {
			if runErr := session.Run(ctx, body); runErr != nil {
				log.Warn("stream session %s: %v", assistantID, runErr)
			}
			close(events)
		}()
		return streamOpenedMsg{}
	}
}

// historyForRequest converts prior completed turns to wire history.
// Resolved tool runs ride along as their own entries so a continuation
// turn actually carries the outputs it asks the assistant to continue
// with.
func (m *Model) historyForRequest() []api.HistoryEntry {
	var out []api.HistoryEntry
	for _, msg := range m.messages {
		if msg.IsStreaming {
			continue
		}
		if msg.Content != "" {
			out = append(out, api.HistoryEntry{
				Role:    string(msg.Role),
				Content: msg.Content,
			})
		}
		for _, call := range msg.ToolCalls {
			out = append(out, api.HistoryEntry{
				Role:    "tool",
				Content: toolHistoryContent(call),
			})
		}
	}
	return out
}

// toolHistoryContent renders one resolved tool call as history text.
func toolHistoryContent(call chat.ToolCall) string {
	status := "failed"
	if call.Success {
		status = "succeeded"
	}
	return fmt.Sprintf("%s %s:\n%s", call.Input, status, call.Output)
}

func (m Model) waitEventCmd() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		return eventMsg{ev: ev, ok: ok}
	}
}

// handleEvent folds one stream event into the streaming message.
func (m Model) handleEvent(msg eventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		// Channel drained after the session closed it; the done event
		// already went through.
		return m, nil
	}

	idx := m.streamingIndex()
	if idx >= 0 {
		m.messages[idx] = chat.Reduce(m.messages[idx], msg.ev)
	}

	var cmds []tea.Cmd
	if msg.ev.Type == "done" {
		m.streaming = false
		if m.session != nil && m.session.State() == stream.StateTimedOut {
			cmds = append(cmds, m.showToast("assistant stream timed out; partial response kept"))
		}
		if idx >= 0 && m.form == nil {
			if cmd := m.openApprovalForm(m.messages[idx]); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	} else {
		cmds = append(cmds, m.waitEventCmd())
		// An approval can arrive mid-stream; surface the form right away.
		if msg.ev.Type == "approval_needed" && idx >= 0 && m.form == nil {
			if cmd := m.openApprovalForm(m.messages[idx]); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}

	m.refreshTranscript()
	return m, tea.Batch(cmds...)
}

// streamingIndex returns the index of the message currently streaming,
// or the last assistant message while its approvals settle.
func (m Model) streamingIndex() int {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role == chat.RoleAssistant {
			return i
		}
	}
	return -1
}

// openApprovalForm builds a confirm form for the first unresolved
// approval on the message, if any.
func (m *Model) openApprovalForm(msg chat.Message) tea.Cmd {
	var pending *chat.PendingApproval
	for i := range msg.PendingApprovals {
		if !msg.PendingApprovals[i].IsExecuting {
			pending = &msg.PendingApprovals[i]
			break
		}
	}
	if pending == nil {
		return nil
	}

	target := "this machine"
	if pending.RunOnHost && pending.TargetHost != "" {
		target = pending.TargetHost
	}

	af := &activeForm{
		messageID: msg.ID,
		toolID:    pending.ToolID,
	}
	af.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Run this command?").
				Description(fmt.Sprintf("%s\non %s", pending.Command, target)).
				Affirmative("Run").
				Negative("Skip").
				Value(&af.approved),
		),
	)
	m.form = af
	return af.form.Init()
}

// completeForm resolves the finished approval form.
func (m *Model) completeForm() tea.Cmd {
	af := m.form
	m.form = nil

	idx := m.indexByID(af.messageID)
	if idx < 0 {
		return nil
	}

	var approval *chat.PendingApproval
	for i := range m.messages[idx].PendingApprovals {
		if m.messages[idx].PendingApprovals[i].ToolID == af.toolID {
			approval = &m.messages[idx].PendingApprovals[i]
			break
		}
	}
	if approval == nil {
		return nil
	}

	if !af.approved {
		m.messages[idx], _ = m.gate.Skip(m.messages[idx], af.toolID)
		m.refreshTranscript()
		return tea.Batch(m.continuationCmd(), m.openApprovalForm(m.messages[idx]))
	}

	m.messages[idx] = chat.MarkExecuting(m.messages[idx], af.toolID, true)
	m.refreshTranscript()

	req := api.ToolRequest{
		Command:    approval.Command,
		RunOnHost:  approval.RunOnHost,
		TargetHost: approval.TargetHost,
	}
	client := m.client
	result := toolResultMsg{
		messageID: af.messageID,
		toolID:    af.toolID,
		name:      approval.ToolName,
		command:   approval.Command,
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		result.resp, result.err = client.ExecuteTool(ctx, req)
		return result
	}
}

// handleToolResult records the executed command and fires the
// continuation when the approval set empties.
func (m Model) handleToolResult(msg toolResultMsg) (tea.Model, tea.Cmd) {
	idx := m.indexByID(msg.messageID)
	if idx < 0 {
		return m, nil
	}

	call := chat.ToolCall{
		ID:    msg.toolID,
		Name:  msg.name,
		Input: msg.command,
	}
	var cmds []tea.Cmd
	switch {
	case msg.err != nil:
		call.Output = msg.err.Error()
		cmds = append(cmds, m.showToast("command failed: "+msg.err.Error()))
	case msg.resp != nil:
		call.Output = msg.resp.Output
		call.Success = msg.resp.Success
		if !msg.resp.Success {
			note := msg.resp.Error
			if note == "" {
				note = msg.name
			}
			cmds = append(cmds, m.showToast("command failed: "+note))
		}
	}

	m.messages[idx] = chat.MarkExecuting(m.messages[idx], msg.toolID, false)
	m.messages[idx], _ = m.gate.Resolve(m.messages[idx], msg.toolID, call)
	m.refreshTranscript()

	cmds = append(cmds, m.continuationCmd(), m.openApprovalForm(m.messages[idx]))
	return m, tea.Batch(cmds...)
}

// continuationCmd issues the hidden follow-up request if the gate just
// emptied a message's approval set.
func (m *Model) continuationCmd() tea.Cmd {
	select {
	case <-m.contCh:
		return m.sendPrompt(continuationPrompt, false)
	default:
		return nil
	}
}

// failStream marks the streaming message failed before any event
// arrived.
func (m *Model) failStream(detail string) {
	idx := m.streamingIndex()
	if idx >= 0 {
		m.messages[idx].IsStreaming = false
		m.messages[idx].Content = "Error: " + detail
	}
	m.streaming = false
	m.refreshTranscript()
}

func (m *Model) showToast(text string) tea.Cmd {
	m.toast = text
	m.toastAt = time.Now()
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{}
	})
}

func (m Model) indexByID(id string) int {
	for i := range m.messages {
		if m.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) layout() {
	headerHeight := 2
	inputHeight := 3
	vpHeight := m.height - headerHeight - inputHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.vpReady {
		m.vp = viewport.New(m.width, vpHeight)
		m.vpReady = true
	} else {
		m.vp.Width = m.width
		m.vp.Height = vpHeight
	}
	m.input.Width = m.width - 4
}

// refreshTranscript re-renders the transcript into the viewport and
// keeps it pinned to the bottom.
func (m *Model) refreshTranscript() {
	if !m.vpReady {
		return
	}
	m.vp.SetContent(m.renderTranscript())
	m.vp.GotoBottom()
}
