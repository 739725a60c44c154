// Package tool implements the tool registry and dispatcher: argument
// validation against a JSON schema, and the concurrency rule that lets
// read-only tools run alongside each other while anything that can
// mutate state or the filesystem serializes against every other call.
package tool

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cortexagent/cortex/internal/cerr"
)

// Capability tags what a tool is allowed to touch, and therefore how it
// may be scheduled relative to other in-flight calls.
type Capability int

const (
	// CapReadOnly tools never mutate the filesystem, network, or
	// process state; they may run concurrently with any number of other
	// CapReadOnly tools.
	CapReadOnly Capability = iota
	// CapWrite tools mutate the filesystem.
	CapWrite
	// CapExecute tools spawn subprocesses.
	CapExecute
	// CapNetwork tools perform outbound network requests.
	CapNetwork
)

// Result is what a tool handler returns to the session loop.
type Result struct {
	Content string
	IsError bool
	// Metadata carries structured, tool-specific extras (e.g. a diff, a
	// list of matched paths) alongside the human-readable Content.
	Metadata map[string]any
}

// Context is the per-call environment a Handler runs in.
type Context struct {
	context.Context
	WorkDir    string
	ToolCallID string
	ConvoID    string
}

// Handler executes one tool call. args is the raw JSON argument object
// from the model, already validated against the Spec's Schema.
type Handler func(tc Context, args json.RawMessage) (Result, error)

// Spec describes one registered tool.
type Spec struct {
	Name        string
	Description string
	// Schema is a JSON Schema object (as parsed JSON) describing the
	// argument shape. Validation is intentionally shallow: required keys
	// present and type-correct, not full JSON Schema semantics.
	Schema     map[string]any
	Capability Capability
	Handler    Handler
}

// Registry holds registered tools and enforces the capability-based
// concurrency rule across calls made through Dispatch.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec

	// execMu serializes every non-read-only call; read-only calls take
	// execMu for reading only (RLock), so many can run at once, while
	// anything else takes the exclusive write lock.
	execMu sync.RWMutex
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{specs: map[string]Spec{}}
}

// Register adds spec, replacing any existing tool of the same name.
func (r *Registry) Register(spec Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.Name] = spec
}

// Lookup returns the Spec for name, if registered.
func (r *Registry) Lookup(name string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[name]
	return s, ok
}

// List returns all registered tool names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.specs))
	for n := range r.specs {
		names = append(names, n)
	}
	return names
}

// Dispatch validates args against name's schema, then runs its handler,
// serialized per the capability rule: CapReadOnly handlers share a read
// lock (many can run at once); every other capability takes the
// exclusive lock (runs alone, blocking all other tool calls). A handler
// panic is recovered and returned as a KindToolExecution error.
func (r *Registry) Dispatch(tc Context, name string, args json.RawMessage) (res Result, err error) {
	spec, ok := r.Lookup(name)
	if !ok {
		return Result{}, cerr.Newf(cerr.KindNotFound, "tool.Dispatch", "unknown tool %q", name)
	}

	if err := validate(spec.Schema, args); err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.Dispatch", err)
	}

	if spec.Capability == CapReadOnly {
		r.execMu.RLock()
		defer r.execMu.RUnlock()
	} else {
		r.execMu.Lock()
		defer r.execMu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			res, err = Result{}, cerr.Newf(cerr.KindToolExecution, "tool.Dispatch", "tool %q panicked: %v", name, p)
		}
	}()
	return spec.Handler(tc, args)
}
