// Package llm defines the contract the session loop drives the external
// model through: a request type, a streamed response event, and the
// Client interface. No concrete HTTP client lives here — wire formats and
// provider SDKs are explicitly out of scope; internal/session depends
// only on this interface, the way the teacher's job runners depend on an
// interface for their external systems rather than an HTTP client type.
package llm

import (
	"context"
	"encoding/json"

	"github.com/cortexagent/cortex/internal/convo"
)

// ToolDef describes one tool the model may call, surfaced from
// internal/tool.Registry.
type ToolDef struct {
	Name        string
	Description string
	Schema      map[string]any
}

// CompletionRequest is one turn's worth of context sent to the model.
type CompletionRequest struct {
	Model     string
	Messages  []convo.Message
	Tools     []ToolDef
	MaxTokens int
}

// EventKind is the closed set of streamed response event variants.
type EventKind string

const (
	EventDelta    EventKind = "delta"     // incremental assistant text
	EventToolCall EventKind = "tool_call" // a complete tool call request
	EventUsage    EventKind = "usage"     // token accounting
	EventFinish   EventKind = "finish"    // stream end
)

// ToolCall is a single tool invocation the model has requested, emitted
// whole (not incrementally) once its arguments are complete.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Usage reports token counts for the turn so far.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ResponseEvent is one item from a Client's response stream. Exactly the
// fields matching Kind are meaningful.
type ResponseEvent struct {
	Kind EventKind

	Delta    string        // EventDelta
	ToolCall ToolCall      // EventToolCall
	Usage    Usage         // EventUsage
	Reason   string        // EventFinish: "stop", "tool_calls", "length", ...
	Err      error         // set on a stream-ending error
}

// Client streams a completion for req. The returned channel is closed
// when the stream ends (naturally, via ctx cancellation, or on error —
// in the last case the final event has Kind == EventFinish with Err
// set). Implementations must respect ctx cancellation promptly so
// Interrupt can unwind the agent loop at the next safe point.
type Client interface {
	Stream(ctx context.Context, req CompletionRequest) (<-chan ResponseEvent, error)
}
