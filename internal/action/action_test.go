package action

import "testing"

func TestResolveContextSpecificBeforeGlobal(t *testing.T) {
	m := NewMapper()
	m.PushContext(Approval)

	// 'y' means approve in the Approval context, not the global "copy".
	got := m.Resolve(KeyEvent{Runes: []rune("y")})
	if got != ActionApprove {
		t.Fatalf("expected ActionApprove, got %q", got)
	}
}

func TestResolveFallsBackToGlobal(t *testing.T) {
	m := NewMapper()
	m.PushContext(Approval)

	got := m.Resolve(KeyEvent{Type: KeyTab})
	if got != ActionFocusNext {
		t.Fatalf("expected global ActionFocusNext fallback, got %q", got)
	}
}

func TestResolveUnknownKeyIsNone(t *testing.T) {
	m := NewMapper()
	got := m.Resolve(KeyEvent{Runes: []rune("Z")})
	if got != ActionNone {
		t.Fatalf("expected ActionNone for an unbound key, got %q", got)
	}
}

func TestContextStackPopReturnsToGlobal(t *testing.T) {
	m := NewMapper()
	m.PushContext(Chat)
	m.PushContext(Approval)
	m.PopContext()
	if m.ActiveContext() != Chat {
		t.Fatalf("expected Chat after one pop, got %q", m.ActiveContext())
	}
	m.PopContext()
	if m.ActiveContext() != Global {
		t.Fatalf("expected Global after second pop, got %q", m.ActiveContext())
	}
	m.PopContext() // popping the last context is a no-op
	if m.ActiveContext() != Global {
		t.Fatalf("popping the last context must not empty the stack")
	}
}

func TestNewContextsDoNotInheritBindings(t *testing.T) {
	m := NewMapper()
	m.PushContext(Sidebar) // Sidebar has no bindings of its own and isn't Chat
	got := m.Resolve(KeyEvent{Runes: []rune("j")})
	if got != ActionNone {
		t.Fatalf("Sidebar must not inherit Chat's vim bindings, got %q", got)
	}
}
