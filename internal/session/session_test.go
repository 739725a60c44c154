package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cortexagent/cortex/internal/approval"
	"github.com/cortexagent/cortex/internal/llm"
	"github.com/cortexagent/cortex/internal/phase"
	"github.com/cortexagent/cortex/internal/tool"
)

// fakeLLM replays a fixed sequence of turns; each call to Stream pops the
// next scripted response off the front.
type fakeLLM struct {
	turns [][]llm.ResponseEvent
	calls int
}

func (f *fakeLLM) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.ResponseEvent, error) {
	ch := make(chan llm.ResponseEvent, 16)
	var events []llm.ResponseEvent
	if f.calls < len(f.turns) {
		events = f.turns[f.calls]
	}
	f.calls++
	go func() {
		defer close(ch)
		for _, ev := range events {
			ch <- ev
		}
	}()
	return ch, nil
}

func drain(t *testing.T, s *Session, want int, timeout time.Duration) []Event {
	t.Helper()
	var got []Event
	deadline := time.After(timeout)
	for len(got) < want {
		select {
		case ev := <-s.Out:
			got = append(got, ev)
		case <-deadline:
			t.Fatalf("timed out waiting for %d events, got %d: %+v", want, len(got), got)
		}
	}
	return got
}

func newTestRegistry() *tool.Registry {
	reg := tool.NewRegistry()
	reg.Register(tool.Spec{
		Name:       "noop",
		Capability: tool.CapReadOnly,
		Schema:     map[string]any{},
		Handler: func(tc tool.Context, args json.RawMessage) (tool.Result, error) {
			return tool.Result{Content: "ok"}, nil
		},
	})
	return reg
}

func TestRunTurnNoToolsReachesTaskComplete(t *testing.T) {
	fl := &fakeLLM{turns: [][]llm.ResponseEvent{
		{{Kind: llm.EventDelta, Delta: "hello"}, {Kind: llm.EventFinish, Reason: "stop"}},
	}}
	s := New(Config{LLM: fl, Tools: newTestRegistry(), Approval: approval.NewQueue(nil)})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// drain SessionConfigured first
	drain(t, s, 1, time.Second)

	s.In <- Submission{ID: "1", Op: OpUserInput, Text: "hi"}
	events := drain(t, s, 5, 2*time.Second) // UserMessage, TaskStarted, AgentMessage, TurnDiff, TaskComplete

	kinds := map[EventKind]bool{}
	for _, ev := range events {
		kinds[ev.Kind] = true
	}
	for _, want := range []EventKind{EventUserMessage, EventTaskStarted, EventAgentMessage, EventTaskComplete} {
		if !kinds[want] {
			t.Errorf("expected event %q among %+v", want, events)
		}
	}
}

// TestRunTurnTwiceReturnsToAwaitingInput guards against the phase machine
// getting stuck after its first turn: a second OpUserInput on the same
// session must see CallingModel driven from EvModelCallStart rather than
// a phase wedged at ProcessingInput, and must itself reach TaskComplete.
func TestRunTurnTwiceReturnsToAwaitingInput(t *testing.T) {
	fl := &fakeLLM{turns: [][]llm.ResponseEvent{
		{{Kind: llm.EventDelta, Delta: "hello"}, {Kind: llm.EventFinish, Reason: "stop"}},
		{{Kind: llm.EventDelta, Delta: "world"}, {Kind: llm.EventFinish, Reason: "stop"}},
	}}
	s := New(Config{LLM: fl, Tools: newTestRegistry(), Approval: approval.NewQueue(nil)})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)
	drain(t, s, 1, time.Second)

	s.In <- Submission{ID: "1", Op: OpUserInput, Text: "hi"}
	drain(t, s, 5, 2*time.Second)

	if got := s.state.Phase(); got != phase.AwaitingInput {
		t.Fatalf("expected phase AwaitingInput between turns, got %q", got)
	}

	s.In <- Submission{ID: "2", Op: OpUserInput, Text: "again"}
	events := drain(t, s, 5, 2*time.Second)

	kinds := map[EventKind]bool{}
	for _, ev := range events {
		kinds[ev.Kind] = true
	}
	if !kinds[EventTaskComplete] {
		t.Fatalf("expected second turn to reach TaskComplete, got %+v", events)
	}
	if got := s.state.Phase(); got != phase.AwaitingInput {
		t.Fatalf("expected phase AwaitingInput after second turn, got %q", got)
	}
}

func TestRunTurnWithAutoApprovedToolCall(t *testing.T) {
	fl := &fakeLLM{turns: [][]llm.ResponseEvent{
		{{Kind: llm.EventToolCall, ToolCall: llm.ToolCall{ID: "tc1", Name: "noop", Arguments: json.RawMessage(`{}`)}}},
		{{Kind: llm.EventDelta, Delta: "done"}},
	}}
	q := approval.NewQueue(nil)
	q.AutoApproveAll = true
	s := New(Config{LLM: fl, Tools: newTestRegistry(), Approval: q})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)
	drain(t, s, 1, time.Second)

	s.In <- Submission{ID: "1", Op: OpUserInput, Text: "run it"}
	events := drain(t, s, 6, 2*time.Second)

	sawResult := false
	for _, ev := range events {
		if ev.Kind == EventToolResult && ev.ToolResult == "ok" {
			sawResult = true
		}
	}
	if !sawResult {
		t.Fatalf("expected a successful tool result event, got %+v", events)
	}
}

func TestUndoWithoutSnapshotJustReportsMissingStack(t *testing.T) {
	fl := &fakeLLM{}
	s := New(Config{LLM: fl, Tools: newTestRegistry(), Approval: approval.NewQueue(nil)})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)
	drain(t, s, 1, time.Second)

	s.In <- Submission{ID: "1", Op: OpUndo}
	events := drain(t, s, 1, time.Second)
	if events[0].Kind != EventError {
		t.Fatalf("expected error event for empty undo stack, got %+v", events[0])
	}
}

// blockingLLM never sends or closes its stream until the caller's ctx is
// canceled, simulating a stalled model connection.
type blockingLLM struct{}

func (blockingLLM) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.ResponseEvent, error) {
	ch := make(chan llm.ResponseEvent)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func TestInterruptDuringStreamStopsTurn(t *testing.T) {
	s := New(Config{LLM: blockingLLM{}, Tools: newTestRegistry(), Approval: approval.NewQueue(nil)})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)
	drain(t, s, 1, time.Second)

	s.In <- Submission{ID: "1", Op: OpUserInput, Text: "hi"}
	drain(t, s, 2, time.Second) // UserMessage, TaskStarted

	s.In <- Submission{ID: "2", Op: OpInterrupt}
	events := drain(t, s, 1, 2*time.Second)

	if events[0].Kind != EventTaskComplete {
		t.Fatalf("expected interrupted turn to resolve with TaskComplete, got %+v", events[0])
	}
}
