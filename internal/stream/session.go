package stream

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/sightlinehq/sightline/internal/logger"
)

// State is a session's lifecycle state.
type State int

const (
	StatePending State = iota
	StateStreaming
	StateCompleted
	StateAborted
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	case StateTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// Timeout defaults. The idle ceiling is generous because model responses
// can legitimately stall for a while between tool rounds; the watchdog
// only exists to bound a truly stuck connection.
const (
	DefaultIdleCeiling  = 5 * time.Minute
	DefaultWatchdogTick = 10 * time.Second
)

// Session owns the lifecycle of one streaming request: it parses the
// body, feeds events to the handler, watches for idle stalls, and
// guarantees the handler always sees a final done event, synthesizing
// one when the server never sent it. The synthetic done papers over a
// backend that sometimes closes without a terminal event; it is a
// compensating workaround kept so the UI can never be left streaming
// forever.
type Session struct {
	ID string

	mu          sync.Mutex
	state       State
	startedAt   time.Time
	lastEventAt time.Time
	doneSeen    bool
	doneSent    bool

	idleCeiling  time.Duration
	watchdogTick time.Duration
	handler      func(Event)
	log          logger.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithIdleCeiling overrides the idle ceiling (and per-read timeout).
func WithIdleCeiling(d time.Duration) Option {
	return func(s *Session) { s.idleCeiling = d }
}

// WithWatchdogTick overrides the watchdog poll cadence.
func WithWatchdogTick(d time.Duration) Option {
	return func(s *Session) { s.watchdogTick = d }
}

// NewSession creates a session dispatching events to handler.
func NewSession(id string, handler func(Event), log logger.Logger, opts ...Option) *Session {
	if log == nil {
		log = logger.Noop()
	}
	s := &Session{
		ID:           id,
		state:        StatePending,
		startedAt:    time.Now(),
		lastEventAt:  time.Now(),
		idleCeiling:  DefaultIdleCeiling,
		watchdogTick: DefaultWatchdogTick,
		handler:      handler,
		log:          log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastEventAt returns the time of the last received event.
func (s *Session) LastEventAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastEventAt
}

// Run consumes the stream body until it ends, the context is cancelled,
// or the watchdog fires. It always closes the body and always delivers a
// terminal done event to the handler, exactly once. Cancellation is
// cooperative: closing the body unblocks the in-flight read.
func (s *Session) Run(ctx context.Context, body io.ReadCloser) error {
	defer body.Close()

	parser := NewParser(s.onEvent, s.log)

	type readResult struct {
		chunk []byte
		err   error
	}
	chunks := make(chan readResult)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := body.Read(buf)
			var chunk []byte
			if n > 0 {
				chunk = append([]byte(nil), buf[:n]...)
			}
			select {
			case chunks <- readResult{chunk: chunk, err: err}:
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	watchdog := time.NewTicker(s.watchdogTick)
	defer watchdog.Stop()

	// Every read also races a hard per-read timeout so one stalled
	// socket read cannot hang past the ceiling even if the watchdog
	// goroutine is starved.
	readTimer := time.NewTimer(s.idleCeiling)
	defer readTimer.Stop()

	var runErr error
loop:
	for {
		select {
		case res := <-chunks:
			if len(res.chunk) > 0 {
				parser.Feed(res.chunk)
			}
			if res.err != nil {
				if res.err != io.EOF {
					runErr = res.err
				}
				break loop
			}
			if !readTimer.Stop() {
				select {
				case <-readTimer.C:
				default:
				}
			}
			readTimer.Reset(s.idleCeiling)

		case <-readTimer.C:
			s.timeOut("read stalled")
			break loop

		case <-watchdog.C:
			s.mu.Lock()
			idle := time.Since(s.lastEventAt)
			s.mu.Unlock()
			if idle > s.idleCeiling {
				s.timeOut("no events")
				break loop
			}

		case <-ctx.Done():
			s.mu.Lock()
			if s.state == StatePending || s.state == StateStreaming {
				s.state = StateAborted
			}
			s.mu.Unlock()
			break loop
		}
	}

	// Unblock the reader goroutine before flushing.
	body.Close()

	// A cancelled session must not deliver trailing data events; only
	// the terminal done goes through.
	if s.State() != StateAborted {
		parser.Flush()
	}
	s.finish()
	return runErr
}

// onEvent forwards one parsed event and updates lifecycle bookkeeping.
func (s *Session) onEvent(ev Event) {
	s.mu.Lock()
	s.lastEventAt = time.Now()
	if s.state == StatePending {
		s.state = StateStreaming
	}
	if ev.Type == "done" {
		s.doneSeen = true
		s.doneSent = true
		if s.state == StateStreaming {
			s.state = StateCompleted
		}
	}
	s.mu.Unlock()

	s.handler(ev)
}

// timeOut marks the session timed out.
func (s *Session) timeOut(reason string) {
	s.mu.Lock()
	if s.state == StatePending || s.state == StateStreaming {
		s.state = StateTimedOut
		s.log.Warn("session %s timed out: %s (idle ceiling %s)", s.ID, reason, s.idleCeiling)
	}
	s.mu.Unlock()
}

// finish settles the terminal state and synthesizes a done event when
// the server never sent one.
func (s *Session) finish() {
	s.mu.Lock()
	if s.state == StatePending || s.state == StateStreaming {
		s.state = StateCompleted
	}
	needDone := !s.doneSent
	s.doneSent = true
	s.mu.Unlock()

	if needDone {
		s.handler(Event{Type: "done", Data: json.RawMessage(`{"synthetic":true}`)})
	}
}

// DoneSeen reports whether the server sent an explicit done event.
func (s *Session) DoneSeen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doneSeen
}
