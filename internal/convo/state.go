package convo

import (
	"time"

	"github.com/google/uuid"

	"github.com/cortexagent/cortex/internal/phase"
)

// ToolCallStatus is the lifecycle of a PendingToolCall.
type ToolCallStatus string

const (
	ToolCallPending   ToolCallStatus = "pending"
	ToolCallRunning   ToolCallStatus = "running"
	ToolCallCompleted ToolCallStatus = "completed"
	ToolCallFailed    ToolCallStatus = "failed"
	ToolCallDenied    ToolCallStatus = "denied"
)

// PendingToolCall tracks one tool invocation between the model requesting
// it and its result being folded back into the conversation.
type PendingToolCall struct {
	ID        string
	Tool      string
	Arguments []byte // raw JSON
	Status    ToolCallStatus
}

// ConversationState is the full state of one conversation, as referenced
// by the session loop and the phase FSM. Invariants:
//   - exactly one Phase value at any time (enforced by phase.Machine)
//   - PendingToolCalls is empty whenever Phase is terminal (phase.IsTerminal)
//   - ForkPoint is non-nil if and only if ParentID is non-nil
type ConversationState struct {
	ID       string
	ParentID *string
	// ForkPoint is the index into the parent's message log this
	// conversation branched from. Non-nil iff ParentID is non-nil.
	ForkPoint *int

	TurnID      int
	TotalTokens int

	CreatedAt    time.Time
	LastActivity time.Time

	machine *phase.Machine

	PendingToolCalls []PendingToolCall
	Error            string
	Metadata         map[string]string
}

// NewConversationState starts a fresh, un-forked conversation.
func NewConversationState() *ConversationState {
	now := time.Now()
	return &ConversationState{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		LastActivity: now,
		machine:      phase.NewMachine(),
		Metadata:     map[string]string{},
	}
}

// Fork produces a new ConversationState branching off parent at
// forkPoint, the index into parent's message log. The forked state
// starts in Idle with a fresh id and no pending tool calls.
func Fork(parent *ConversationState, forkPoint int) *ConversationState {
	now := time.Now()
	parentID := parent.ID
	fp := forkPoint
	return &ConversationState{
		ID:           uuid.NewString(),
		ParentID:     &parentID,
		ForkPoint:    &fp,
		CreatedAt:    now,
		LastActivity: now,
		machine:      phase.NewMachine(),
		Metadata:     map[string]string{},
	}
}

// Phase returns the conversation's current phase.
func (c *ConversationState) Phase() phase.Phase {
	return c.machine.Phase()
}

// Apply evaluates ev against the conversation's phase machine, updates
// TurnID/LastActivity bookkeeping, and returns the resulting phase. A
// rejected event leaves all conversation state untouched.
func (c *ConversationState) Apply(ev phase.Event) (phase.Phase, error) {
	next, err := c.machine.Apply(ev)
	if err != nil {
		return next, err
	}
	c.TurnID = c.machine.TurnCount()
	c.LastActivity = c.machine.LastActivity()
	if ev.Kind == phase.EvError {
		c.Error = ev.Error
	}
	if phase.IsTerminal(next) {
		c.PendingToolCalls = nil
	}
	return next, nil
}

// AddPendingToolCall registers a tool call requested by the model.
func (c *ConversationState) AddPendingToolCall(id, tool string, args []byte) {
	c.PendingToolCalls = append(c.PendingToolCalls, PendingToolCall{
		ID:        id,
		Tool:      tool,
		Arguments: args,
		Status:    ToolCallPending,
	})
}

// ResolveToolCall updates the status of the pending call matching id, if
// present.
func (c *ConversationState) ResolveToolCall(id string, status ToolCallStatus) {
	for i := range c.PendingToolCalls {
		if c.PendingToolCalls[i].ID == id {
			c.PendingToolCalls[i].Status = status
			return
		}
	}
}

// AllToolCallsResolved reports whether no PendingToolCall is still
// Pending or Running.
func (c *ConversationState) AllToolCallsResolved() bool {
	for _, tc := range c.PendingToolCalls {
		if tc.Status == ToolCallPending || tc.Status == ToolCallRunning {
			return false
		}
	}
	return true
}
