package approval

import "testing"

type memAllow struct {
	allowed map[string]bool
}

func newMemAllow() *memAllow { return &memAllow{allowed: map[string]bool{}} }

func (m *memAllow) IsAllowed(tool, shapeHash string) bool { return m.allowed[tool+"\x00"+shapeHash] }
func (m *memAllow) Allow(tool, shapeHash string) error {
	m.allowed[tool+"\x00"+shapeHash] = true
	return nil
}

func TestSubmitQueuesWithoutAutoApprove(t *testing.T) {
	q := NewQueue(nil)
	auto := q.Submit(Request{ToolCallID: "tc1", Tool: "write", Arguments: []byte(`{"path":"a"}`)})
	if auto {
		t.Fatalf("expected no auto-approval")
	}
	if !q.Pending("tc1") {
		t.Fatalf("expected tc1 pending")
	}
}

func TestAutoApproveAllBypassesQueue(t *testing.T) {
	q := NewQueue(nil)
	q.AutoApproveAll = true
	auto := q.Submit(Request{ToolCallID: "tc1", Tool: "write"})
	if !auto {
		t.Fatalf("expected auto-approval under DangerFullAccess policy")
	}
	d := <-q.Events
	if d.Verdict != Approved {
		t.Fatalf("expected Approved verdict emitted, got %v", d.Verdict)
	}
}

func TestApprovedForSessionAutoApprovesSameShape(t *testing.T) {
	q := NewQueue(nil)
	q.Submit(Request{ToolCallID: "tc1", Tool: "edit", Arguments: []byte(`{"path":"a"}`)})
	if err := q.Resolve("tc1", ApprovedForSession); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	auto := q.Submit(Request{ToolCallID: "tc2", Tool: "edit", Arguments: []byte(`{"path":"b"}`)})
	if !auto {
		t.Fatalf("expected second same-shape call to auto-approve for session")
	}
}

func TestApprovedAlwaysPersistsAcrossQueues(t *testing.T) {
	store := newMemAllow()
	q1 := NewQueue(store)
	q1.Submit(Request{ToolCallID: "tc1", Tool: "execute", Arguments: []byte(`{"cmd":"ls"}`)})
	if err := q1.Resolve("tc1", ApprovedAlways); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	q2 := NewQueue(store)
	auto := q2.Submit(Request{ToolCallID: "tc2", Tool: "execute", Arguments: []byte(`{"cmd":"pwd"}`)})
	if !auto {
		t.Fatalf("expected always-allow to carry across a new queue instance")
	}
}

func TestDeniedDoesNotAddToAllowList(t *testing.T) {
	q := NewQueue(nil)
	q.Submit(Request{ToolCallID: "tc1", Tool: "execute", Arguments: []byte(`{"cmd":"rm"}`)})
	q.Resolve("tc1", Denied)
	auto := q.Submit(Request{ToolCallID: "tc2", Tool: "execute", Arguments: []byte(`{"cmd":"rm"}`)})
	if auto {
		t.Fatalf("denial must not auto-approve future matching calls")
	}
}
