package hooks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSanitizeReplacesDisallowedChars(t *testing.T) {
	out := Sanitize("a/b; rm -rf /$(x)")
	if out != "a/b_ rm -rf /__x_" {
		t.Fatalf("unexpected sanitized output: %q", out)
	}
}

func TestExpandPlaceholdersSubstitutesAndSanitizes(t *testing.T) {
	out := ExpandPlaceholders("echo {file}", map[string]string{"file": "a;b"})
	if out != "echo a_b" {
		t.Fatalf("expected sanitized substitution, got %q", out)
	}
}

func TestExpandPlaceholdersLeavesUnknownKeysAlone(t *testing.T) {
	out := ExpandPlaceholders("echo {nope}", map[string]string{"file": "a"})
	if out != "echo {nope}" {
		t.Fatalf("expected unknown placeholder left untouched, got %q", out)
	}
}

func TestHookMatchesPipeSeparatedExact(t *testing.T) {
	h := Hook{Matcher: "write|edit"}
	if !h.Matches("write") || !h.Matches("edit") {
		t.Fatalf("expected exact matches for write and edit")
	}
	if h.Matches("writex") {
		t.Fatalf("matcher must be exact, not prefix")
	}
}

func TestLoadSaveRoundTripsExtraFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hooks.json")
	os.WriteFile(path, []byte(`{"hooks":{"Stop":[{"command":"echo done"}]},"future_field":"keep me"}`), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Hooks[TypeStop]) != 1 {
		t.Fatalf("expected one Stop hook")
	}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !contains(string(data), "keep me") {
		t.Fatalf("expected unknown field preserved, got %s", data)
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}

func TestDispatchBlockingHookCanVeto(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Hooks: map[Type][]Hook{
		TypeToolBefore: {{Command: `echo '{"block": true, "reason": "nope"}'`, Matcher: "execute"}},
	}}
	d := NewDispatcher(cfg, dir)
	dec, err := d.Dispatch(context.Background(), EventContext{Type: TypeToolBefore, ToolName: "execute"})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !dec.Block {
		t.Fatalf("expected hook to veto the tool call")
	}
}

func TestDispatchOnceHookFiresOnlyOnce(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	cfg := &Config{Hooks: map[Type][]Hook{
		TypeSessionStart: {{Command: "echo x >> " + marker, Once: true}},
	}}
	d := NewDispatcher(cfg, dir)
	d.Dispatch(context.Background(), EventContext{Type: TypeSessionStart})
	d.Dispatch(context.Background(), EventContext{Type: TypeSessionStart})
	time.Sleep(200 * time.Millisecond) // SessionStart fires async; give it time to land

	data, _ := os.ReadFile(marker)
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 1 {
		t.Fatalf("expected once-hook to fire exactly once, got %d lines", lines)
	}
}
