// Package stream implements the Server-Sent-Events client side of the
// assistant protocol: incremental frame parsing and the session
// lifecycle around one streaming request.
package stream

import (
	"encoding/json"
	"strings"

	"github.com/sightlinehq/sightline/internal/logger"
)

// Event is one parsed protocol event. Data stays raw so the consumer
// decodes per event type.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Parser incrementally assembles SSE frames from arbitrary byte chunks.
// Frames split on blank lines; `data: ` payloads are JSON-decoded and
// dispatched in arrival order. Comment lines (heartbeats) are ignored,
// and a malformed payload is logged and skipped without killing the
// stream. Feeding the same bytes in different chunkings yields the same
// event sequence.
type Parser struct {
	onEvent func(Event)
	log     logger.Logger
	buf     strings.Builder
	carry   bool // pending \r that may pair with a \n in the next chunk
}

// NewParser creates a parser dispatching each decoded event to onEvent.
func NewParser(onEvent func(Event), log logger.Logger) *Parser {
	if log == nil {
		log = logger.Noop()
	}
	return &Parser{onEvent: onEvent, log: log}
}

// Feed appends a chunk and dispatches any frames it completes.
func (p *Parser) Feed(chunk []byte) {
	data := string(chunk)
	if p.carry {
		data = "\r" + data
		p.carry = false
	}
	// Hold back a trailing \r in case its \n arrives in the next chunk.
	if strings.HasSuffix(data, "\r") {
		data = data[:len(data)-1]
		p.carry = true
	}
	p.buf.WriteString(strings.ReplaceAll(data, "\r\n", "\n"))

	content := p.buf.String()
	parts := strings.Split(content, "\n\n")
	if len(parts) == 1 {
		return
	}
	p.buf.Reset()
	p.buf.WriteString(parts[len(parts)-1])
	for _, frame := range parts[:len(parts)-1] {
		p.handleFrame(frame)
	}
}

// Flush processes whatever is still buffered as a final frame. Called at
// stream end so a response without a trailing blank line still delivers
// its last event.
func (p *Parser) Flush() {
	if p.carry {
		p.buf.WriteString("\r")
		p.carry = false
	}
	rest := p.buf.String()
	p.buf.Reset()
	if strings.TrimSpace(rest) == "" {
		return
	}
	p.handleFrame(rest)
}

func (p *Parser) handleFrame(frame string) {
	for _, line := range strings.Split(frame, "\n") {
		if strings.HasPrefix(line, ":") {
			// Heartbeat/comment line.
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := line[len("data: "):]
		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			p.log.Warn("skipping malformed stream payload: %v", err)
			continue
		}
		p.onEvent(ev)
	}
}
