// Package phase implements the conversation phase state machine: explicit
// states, event-driven transitions, and validation. No event not listed
// for the current state produces a transition — unmatched events are
// rejected with no side effect, per the "phase closure" invariant.
package phase

import (
	"fmt"
	"sync"
	"time"
)

// Phase is one of the closed set of conversation states.
type Phase string

const (
	Idle              Phase = "idle"
	AwaitingInput     Phase = "awaiting_input"
	ProcessingInput   Phase = "processing_input"
	CallingModel      Phase = "calling_model"
	StreamingResponse Phase = "streaming_response"
	ExecutingTools    Phase = "executing_tools"
	AwaitingApproval  Phase = "awaiting_approval"
	ProcessingResults Phase = "processing_results"
	Compacting        Phase = "compacting"
	Error             Phase = "error"
	Ended             Phase = "ended"
	Paused            Phase = "paused"
)

// EventKind is the closed set of transition triggers.
type EventKind string

const (
	EvUserInput            EventKind = "user_input"
	EvModelCallStart       EventKind = "model_call_start"
	EvModelChunk           EventKind = "model_chunk"
	EvModelCompleteNoTools EventKind = "model_complete_no_tools"
	EvModelCompleteTools   EventKind = "model_complete_tools"
	EvToolCallRequested    EventKind = "tool_call_requested"
	EvToolApproved         EventKind = "tool_approved"
	EvToolCompleted        EventKind = "tool_completed" // last pending
	EvToolDenied           EventKind = "tool_denied"     // last pending
	EvCompactStart         EventKind = "compact_start"
	EvCompactComplete      EventKind = "compact_complete"
	EvPause                EventKind = "pause"
	EvResume               EventKind = "resume"
	EvError                EventKind = "error"
	EvAbort                EventKind = "abort"
	EvEnd                  EventKind = "end"
)

// Event is one FSM input.
type Event struct {
	Kind  EventKind
	Error string // populated for EvError
}

// transitions maps (current phase, event) -> next phase. Multiple source
// phases accepting the same event are listed individually, matching the
// "abridged; same triples accepted" table in the design.
var transitions = map[Phase]map[EventKind]Phase{
	Idle: {
		EvUserInput:    ProcessingInput,
		EvCompactStart: Compacting,
		EvAbort:        Ended,
		EvEnd:          Ended,
		EvPause:        Paused,
	},
	AwaitingInput: {
		EvUserInput:    ProcessingInput,
		EvCompactStart: Compacting,
		EvAbort:        Ended,
		EvEnd:          Ended,
		EvPause:        Paused,
	},
	Compacting: {
		EvCompactComplete: AwaitingInput,
		EvAbort:           Ended,
	},
	Paused: {
		EvUserInput: ProcessingInput,
		EvResume:    AwaitingInput,
		EvAbort:     Ended,
	},
	ProcessingInput: {
		EvModelCallStart: CallingModel,
		EvAbort:          Ended,
		EvPause:          Paused,
	},
	ProcessingResults: {
		EvModelCallStart: CallingModel,
		EvAbort:          Ended,
		EvPause:          Paused,
	},
	CallingModel: {
		EvModelChunk:           StreamingResponse,
		EvModelCompleteNoTools: AwaitingInput,
		EvModelCompleteTools:   ExecutingTools,
		EvToolCallRequested:    AwaitingApproval,
		EvAbort:                Ended,
		EvPause:                Paused,
	},
	StreamingResponse: {
		EvModelChunk:           StreamingResponse,
		EvModelCompleteNoTools: AwaitingInput,
		EvModelCompleteTools:   ExecutingTools,
		EvToolCallRequested:    AwaitingApproval,
		EvAbort:                Ended,
		EvPause:                Paused,
	},
	AwaitingApproval: {
		EvToolApproved: ExecutingTools,
		EvToolDenied:   ProcessingResults,
		EvAbort:        Ended,
	},
	ExecutingTools: {
		EvToolCompleted: ProcessingResults,
		EvAbort:         Ended,
	},
}

// Machine is the thread-safe phase FSM for one conversation.
type Machine struct {
	mu           sync.Mutex
	phase        Phase
	errorMessage string
	turnCount    int
	lastActivity time.Time
	history      []Event
}

// NewMachine starts a Machine in Idle.
func NewMachine() *Machine {
	return &Machine{phase: Idle, lastActivity: time.Now()}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// TurnCount returns the number of ProcessingInput transitions so far.
func (m *Machine) TurnCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turnCount
}

// LastActivity returns the wall-clock time of the last accepted event.
func (m *Machine) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}

// ErrorMessage returns the latched error string, set when Apply(EvError)
// succeeds.
func (m *Machine) ErrorMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errorMessage
}

// ErrRejected is returned when an event has no transition from the
// current phase. The caller must treat this as "no transition, no side
// effect" — never a fall-through to some default phase.
type ErrRejected struct {
	From  Phase
	Event EventKind
}

func (e *ErrRejected) Error() string {
	return fmt.Sprintf("phase: event %q has no transition from %q", e.Event, e.From)
}

// Apply evaluates ev against the current phase and, if a transition
// exists, applies it and returns the new phase. "Error" and "Abort" are
// accepted from any phase (the "any" rows in the design), independent of
// the per-phase table.
func (m *Machine) Apply(ev Event) (Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ev.Kind == EvError {
		m.phase = Error
		m.errorMessage = ev.Error
		m.lastActivity = time.Now()
		m.history = append(m.history, ev)
		return m.phase, nil
	}
	if ev.Kind == EvAbort {
		m.phase = Ended
		m.lastActivity = time.Now()
		m.history = append(m.history, ev)
		return m.phase, nil
	}

	next, ok := transitions[m.phase][ev.Kind]
	if !ok {
		return m.phase, &ErrRejected{From: m.phase, Event: ev.Kind}
	}

	if ev.Kind == EvUserInput {
		m.turnCount++
	}
	m.phase = next
	m.lastActivity = time.Now()
	m.history = append(m.history, ev)
	return m.phase, nil
}

// IsTerminal reports whether phase is one that never accepts further
// "pending tool calls" — i.e. Ended or Error (the invariant that the
// pending list is empty in any terminal state is enforced by the session
// loop, which must clear pending calls before transitioning here).
func IsTerminal(p Phase) bool {
	return p == Ended || p == Error
}
