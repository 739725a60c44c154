package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	xexec "github.com/cortexagent/cortex/internal/exec"
)

// EventContext carries everything a hook invocation might need, both for
// placeholder substitution in its command and for the environment
// variables passed to the hook process. Not every field is populated for
// every Type — see EnvFor.
type EventContext struct {
	Type       Type
	SessionID  string
	MessageID  string
	FilePath   string
	ToolName   string
	ToolArgs   string
	ToolResult string
	AgentID    string
	AgentName  string
	ParentAgentID string
}

// Placeholders returns the {name} substitution map for ec.
func (ec EventContext) Placeholders() map[string]string {
	m := map[string]string{
		"session_id": ec.SessionID,
		"message_id": ec.MessageID,
	}
	if ec.FilePath != "" {
		m["file"] = ec.FilePath
		m["path"] = ec.FilePath
	}
	return m
}

// EnvFor derives the subset of hook env vars (SESSION_ID, FILE_PATH,
// TOOL_NAME, ...) relevant to ec.Type, appended to the base process
// environment.
func (ec EventContext) EnvFor() []string {
	env := os.Environ()
	add := func(k, v string) {
		if v != "" {
			env = append(env, k+"="+v)
		}
	}
	add("SESSION_ID", ec.SessionID)
	add("MESSAGE_ID", ec.MessageID)

	switch ec.Type {
	case TypeFileEdited, TypeFileCreated, TypeFileDeleted:
		add("FILE_PATH", ec.FilePath)
		add("FILE_EXT", fileExt(ec.FilePath))
	case TypeToolBefore, TypeToolAfter, TypeToolFailure, TypePermissionRequest:
		add("TOOL_NAME", ec.ToolName)
		add("TOOL_ARGS", ec.ToolArgs)
		if ec.Type == TypeToolAfter || ec.Type == TypeToolFailure {
			add("TOOL_RESULT", ec.ToolResult)
		}
	case TypeSubagentStart, TypeSubagentStop:
		add("AGENT_ID", ec.AgentID)
		add("AGENT_NAME", ec.AgentName)
		add("PARENT_AGENT_ID", ec.ParentAgentID)
	}
	return env
}

func fileExt(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i+1:]
}

// Decision is a blocking hook's verdict, parsed from its stdout when it
// emits a JSON object; a non-JSON or empty stdout is treated as
// {"block": false}.
type Decision struct {
	Block  bool   `json:"block"`
	Reason string `json:"reason"`
}

// Dispatcher runs configured hooks against EventContexts.
type Dispatcher struct {
	cfg *Config
	dir string // working directory hook commands run in

	firedMu sync.Mutex
	fired   map[string]bool // "type\x00command" -> true, for Once hooks
}

// NewDispatcher builds a Dispatcher for cfg, running hook commands in
// dir.
func NewDispatcher(cfg *Config, dir string) *Dispatcher {
	return &Dispatcher{cfg: cfg, dir: dir, fired: map[string]bool{}}
}

// Dispatch runs every Hook configured for ec.Type whose Matcher (if any)
// matches ec.ToolName. Blocking types run synchronously and in order,
// stopping at the first Decision.Block == true. Non-blocking types are
// launched and not waited on.
func (d *Dispatcher) Dispatch(ctx context.Context, ec EventContext) (Decision, error) {
	hooks := d.cfg.Hooks[ec.Type]
	blocking := IsBlocking(ec.Type)

	for _, h := range hooks {
		if !h.Matches(ec.ToolName) {
			continue
		}
		if h.Once && d.alreadyFired(ec.Type, h.Command) {
			continue
		}
		d.markFired(ec.Type, h.Command)

		command := ExpandPlaceholders(h.Command, ec.Placeholders())
		cfg := xexec.Config{Argv: []string{command}, Shell: true, Dir: d.dir, Env: ec.EnvFor(), Timeout: 30 * time.Second}

		if !blocking {
			go func() { _, _ = xexec.Run(context.Background(), cfg) }()
			continue
		}

		res, err := xexec.Run(ctx, cfg)
		if err != nil {
			return Decision{}, err
		}
		dec := parseDecision(res.Stdout)
		if dec.Block {
			return dec, nil
		}
	}
	return Decision{}, nil
}

func parseDecision(stdout string) Decision {
	trimmed := bytes.TrimSpace([]byte(stdout))
	if len(trimmed) == 0 {
		return Decision{}
	}
	var dec Decision
	if err := json.Unmarshal(trimmed, &dec); err != nil {
		return Decision{}
	}
	return dec
}

func (d *Dispatcher) alreadyFired(t Type, command string) bool {
	d.firedMu.Lock()
	defer d.firedMu.Unlock()
	return d.fired[string(t)+"\x00"+command]
}

func (d *Dispatcher) markFired(t Type, command string) {
	d.firedMu.Lock()
	defer d.firedMu.Unlock()
	d.fired[string(t)+"\x00"+command] = true
}

// ResetSession clears Once bookkeeping, for a new session reusing the
// same Dispatcher.
func (d *Dispatcher) ResetSession() {
	d.firedMu.Lock()
	defer d.firedMu.Unlock()
	d.fired = map[string]bool{}
}
