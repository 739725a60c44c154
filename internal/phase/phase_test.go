package phase

import "testing"

func TestNewMachineStartsIdle(t *testing.T) {
	m := NewMachine()
	if m.Phase() != Idle {
		t.Fatalf("expected Idle, got %v", m.Phase())
	}
}

func TestUserInputAdvancesAndCountsTurn(t *testing.T) {
	m := NewMachine()
	next, err := m.Apply(Event{Kind: EvUserInput})
	if err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if next != ProcessingInput {
		t.Fatalf("expected ProcessingInput, got %v", next)
	}
	if m.TurnCount() != 1 {
		t.Fatalf("expected turn count 1, got %d", m.TurnCount())
	}
}

func TestUnlistedEventIsRejectedWithNoSideEffect(t *testing.T) {
	m := NewMachine()
	before := m.Phase()
	beforeTurns := m.TurnCount()
	_, err := m.Apply(Event{Kind: EvToolCompleted})
	if err == nil {
		t.Fatalf("expected rejection for tool_completed from idle")
	}
	if m.Phase() != before {
		t.Fatalf("phase must be unchanged after rejection")
	}
	if m.TurnCount() != beforeTurns {
		t.Fatalf("turn count must be unchanged after rejection")
	}
}

func TestFullTurnTransitionSequence(t *testing.T) {
	m := NewMachine()
	steps := []struct {
		ev   EventKind
		want Phase
	}{
		{EvUserInput, ProcessingInput},
		{EvModelCallStart, CallingModel},
		{EvModelChunk, StreamingResponse},
		{EvModelCompleteTools, ExecutingTools},
		{EvToolCompleted, ProcessingResults},
		{EvModelCallStart, CallingModel},
		{EvModelCompleteNoTools, AwaitingInput},
	}
	for _, s := range steps {
		got, err := m.Apply(Event{Kind: s.ev})
		if err != nil {
			t.Fatalf("event %v rejected from unexpected phase: %v", s.ev, err)
		}
		if got != s.want {
			t.Fatalf("event %v: expected %v, got %v", s.ev, s.want, got)
		}
	}
}

func TestErrorAcceptedFromAnyPhase(t *testing.T) {
	m := NewMachine()
	m.Apply(Event{Kind: EvUserInput})
	m.Apply(Event{Kind: EvModelCallStart})
	next, err := m.Apply(Event{Kind: EvError, Error: "boom"})
	if err != nil {
		t.Fatalf("error event must never be rejected: %v", err)
	}
	if next != Error {
		t.Fatalf("expected Error phase, got %v", next)
	}
	if m.ErrorMessage() != "boom" {
		t.Fatalf("expected latched error message, got %q", m.ErrorMessage())
	}
}

func TestApprovalDenialReturnsToProcessingResults(t *testing.T) {
	m := NewMachine()
	m.Apply(Event{Kind: EvUserInput})
	m.Apply(Event{Kind: EvModelCallStart})
	m.Apply(Event{Kind: EvToolCallRequested})
	if m.Phase() != AwaitingApproval {
		t.Fatalf("expected AwaitingApproval, got %v", m.Phase())
	}
	next, err := m.Apply(Event{Kind: EvToolDenied})
	if err != nil || next != ProcessingResults {
		t.Fatalf("expected ProcessingResults after denial, got %v err=%v", next, err)
	}
}

func TestCompactingEntersAndExitsFromIdle(t *testing.T) {
	m := NewMachine()
	next, err := m.Apply(Event{Kind: EvCompactStart})
	if err != nil || next != Compacting {
		t.Fatalf("expected Compacting, got %v err=%v", next, err)
	}
	next, err = m.Apply(Event{Kind: EvCompactComplete})
	if err != nil || next != AwaitingInput {
		t.Fatalf("expected AwaitingInput after compact complete, got %v err=%v", next, err)
	}
}

func TestCompactingRejectedMidTurn(t *testing.T) {
	m := NewMachine()
	m.Apply(Event{Kind: EvUserInput})
	m.Apply(Event{Kind: EvModelCallStart})
	if _, err := m.Apply(Event{Kind: EvCompactStart}); err == nil {
		t.Fatalf("expected compact_start to be rejected while a turn is in flight")
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(Ended) || !IsTerminal(Error) {
		t.Fatalf("Ended and Error must be terminal")
	}
	if IsTerminal(Idle) || IsTerminal(AwaitingInput) {
		t.Fatalf("Idle and AwaitingInput must not be terminal")
	}
}
