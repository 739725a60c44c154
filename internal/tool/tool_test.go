package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cortexagent/cortex/internal/lock"
	"github.com/cortexagent/cortex/internal/patch"
	"github.com/cortexagent/cortex/internal/sandbox"
)

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()
	reg := NewRegistry()
	b := &Builtins{
		Locks:   lock.NewRegistry(),
		Applier: &patch.Applier{Locks: lock.NewRegistry(), Root: dir},
		Sandbox: sandbox.Config{Policy: sandbox.DangerFullAccess},
	}
	RegisterBuiltins(reg, b)
	return reg, dir
}

func tcFor(dir string) Context {
	return Context{Context: context.Background(), WorkDir: dir, ToolCallID: "tc1", ConvoID: "c1"}
}

func TestDispatchUnknownTool(t *testing.T) {
	reg, dir := newTestRegistry(t)
	_, err := reg.Dispatch(tcFor(dir), "nope", nil)
	if err == nil {
		t.Fatalf("expected error for unknown tool")
	}
}

func TestDispatchRejectsMissingRequiredArg(t *testing.T) {
	reg, dir := newTestRegistry(t)
	_, err := reg.Dispatch(tcFor(dir), "read", json.RawMessage(`{}`))
	if err == nil {
		t.Fatalf("expected validation error for missing path")
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	reg, dir := newTestRegistry(t)
	_, err := reg.Dispatch(tcFor(dir), "write", json.RawMessage(`{"path":"a.txt","content":"hello"}`))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	res, err := reg.Dispatch(tcFor(dir), "read", json.RawMessage(`{"path":"a.txt"}`))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if res.Content != "hello" {
		t.Fatalf("expected 'hello', got %q", res.Content)
	}
}

func TestEditReplacesText(t *testing.T) {
	reg, dir := newTestRegistry(t)
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("foo bar"), 0o644)
	_, err := reg.Dispatch(tcFor(dir), "edit", json.RawMessage(`{"path":"a.txt","old_text":"bar","new_text":"baz"}`))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "a.txt"))
	if string(data) != "foo baz" {
		t.Fatalf("expected 'foo baz', got %q", data)
	}
}

func TestEditMissingOldTextFailsWithoutModifying(t *testing.T) {
	reg, dir := newTestRegistry(t)
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("foo bar"), 0o644)
	_, err := reg.Dispatch(tcFor(dir), "edit", json.RawMessage(`{"path":"a.txt","old_text":"nope","new_text":"baz"}`))
	if err == nil {
		t.Fatalf("expected error for missing old_text")
	}
	data, _ := os.ReadFile(filepath.Join(dir, "a.txt"))
	if string(data) != "foo bar" {
		t.Fatalf("file must be unchanged on failed edit, got %q", data)
	}
}

func TestReadOnlyToolsRunConcurrently(t *testing.T) {
	reg, dir := newTestRegistry(t)

	// Count overlap inside the handler, i.e. while Dispatch holds its lock.
	var running int32
	var maxRunning int32
	reg.Register(Spec{
		Name:       "slow_read",
		Capability: CapReadOnly,
		Handler: func(tc Context, args json.RawMessage) (Result, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				cur := atomic.LoadInt32(&maxRunning)
				if n <= cur || atomic.CompareAndSwapInt32(&maxRunning, cur, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return Result{}, nil
		},
	})
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			reg.Dispatch(tcFor(dir), "slow_read", nil)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}
	if maxRunning < 2 {
		t.Fatalf("expected read-only tools to overlap, max concurrent was %d", maxRunning)
	}
}

func TestExecuteAndWriteSerialize(t *testing.T) {
	reg, dir := newTestRegistry(t)

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	started := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		close(started)
		reg.Dispatch(tcFor(dir), "execute", json.RawMessage(`{"command":"sleep 0.05"}`))
		record("execute")
		close(finished)
	}()
	<-started
	time.Sleep(5 * time.Millisecond) // let the execute call take the exclusive lock first

	reg.Dispatch(tcFor(dir), "write", json.RawMessage(`{"path":"b.txt","content":"x"}`))
	record("write")
	<-finished

	if len(order) != 2 || order[0] != "execute" {
		t.Fatalf("expected execute to finish before the write that was blocked behind it, got %v", order)
	}
}
