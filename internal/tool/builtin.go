package tool

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/cortexagent/cortex/internal/cerr"
	xexec "github.com/cortexagent/cortex/internal/exec"
	"github.com/cortexagent/cortex/internal/lock"
	"github.com/cortexagent/cortex/internal/patch"
	"github.com/cortexagent/cortex/internal/sandbox"
	"github.com/cortexagent/cortex/internal/text"
)

// SpawnFunc launches a subagent by kind with the given prompt, returning
// its final text result. internal/subagent supplies the real
// implementation; tests can stub it.
type SpawnFunc func(tc Context, kind, prompt string) (string, error)

// Builtins bundles the shared dependencies every built-in handler needs.
type Builtins struct {
	Locks   *lock.Registry
	Applier *patch.Applier
	Sandbox sandbox.Config
	Spawn   SpawnFunc

	todosMu sync.Mutex
	todos   map[string][]TodoItem
}

// TodoItem is one entry in a conversation's working todo list.
type TodoItem struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Done     bool   `json:"done"`
	Priority string `json:"priority,omitempty"`
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// RegisterBuiltins registers every built-in tool from the spec's tool
// table onto reg.
func RegisterBuiltins(reg *Registry, b *Builtins) {
	if b.todos == nil {
		b.todos = map[string][]TodoItem{}
	}

	reg.Register(Spec{
		Name:        "read",
		Description: "Read a text file, optionally a line range.",
		Capability:  CapReadOnly,
		Schema: map[string]any{
			"required":   []any{"path"},
			"properties": map[string]any{"path": map[string]any{"type": "string"}},
		},
		Handler: b.handleRead,
	})
	reg.Register(Spec{
		Name:        "write",
		Description: "Create or overwrite a file with the given content.",
		Capability:  CapWrite,
		Schema: map[string]any{
			"required": []any{"path", "content"},
			"properties": map[string]any{
				"path":    map[string]any{"type": "string"},
				"content": map[string]any{"type": "string"},
			},
		},
		Handler: b.handleWrite,
	})
	reg.Register(Spec{
		Name:        "edit",
		Description: "Replace the first occurrence of old_text with new_text in a file.",
		Capability:  CapWrite,
		Schema: map[string]any{
			"required": []any{"path", "old_text", "new_text"},
			"properties": map[string]any{
				"path":     map[string]any{"type": "string"},
				"old_text": map[string]any{"type": "string"},
				"new_text": map[string]any{"type": "string"},
			},
		},
		Handler: b.handleEdit,
	})
	reg.Register(Spec{
		Name:        "multi_edit",
		Description: "Apply a sequence of old_text/new_text replacements to one file atomically.",
		Capability:  CapWrite,
		Schema: map[string]any{
			"required": []any{"path", "edits"},
			"properties": map[string]any{
				"path":  map[string]any{"type": "string"},
				"edits": map[string]any{"type": "array"},
			},
		},
		Handler: b.handleMultiEdit,
	})
	reg.Register(Spec{
		Name:        "grep",
		Description: "Search files under a root for a regular expression.",
		Capability:  CapReadOnly,
		Schema: map[string]any{
			"required": []any{"pattern"},
			"properties": map[string]any{
				"pattern": map[string]any{"type": "string"},
				"path":    map[string]any{"type": "string"},
			},
		},
		Handler: b.handleGrep,
	})
	reg.Register(Spec{
		Name:        "glob",
		Description: "List files matching a glob pattern.",
		Capability:  CapReadOnly,
		Schema: map[string]any{
			"required":   []any{"pattern"},
			"properties": map[string]any{"pattern": map[string]any{"type": "string"}},
		},
		Handler: b.handleGlob,
	})
	reg.Register(Spec{
		Name:        "ls",
		Description: "List directory entries.",
		Capability:  CapReadOnly,
		Schema: map[string]any{
			"properties": map[string]any{"path": map[string]any{"type": "string"}},
		},
		Handler: b.handleLS,
	})
	reg.Register(Spec{
		Name:        "execute",
		Description: "Run a shell command and capture its output.",
		Capability:  CapExecute,
		Schema: map[string]any{
			"required":   []any{"command"},
			"properties": map[string]any{"command": map[string]any{"type": "string"}},
		},
		Handler: b.handleExecute,
	})
	reg.Register(Spec{
		Name:        "apply_patch",
		Description: "Apply a unified diff, git-extended diff, or search/replace patch.",
		Capability:  CapWrite,
		Schema: map[string]any{
			"required":   []any{"patch"},
			"properties": map[string]any{"patch": map[string]any{"type": "string"}},
		},
		Handler: b.handleApplyPatch,
	})
	reg.Register(Spec{
		Name:        "propose",
		Description: "Validate a patch's format without applying it.",
		Capability:  CapReadOnly,
		Schema: map[string]any{
			"required":   []any{"patch"},
			"properties": map[string]any{"patch": map[string]any{"type": "string"}},
		},
		Handler: b.handlePropose,
	})
	reg.Register(Spec{
		Name:        "fetch_url",
		Description: "Fetch a URL and return truncated text content. Set js for JS-rendered pages.",
		Capability:  CapNetwork,
		Schema: map[string]any{
			"required": []any{"url"},
			"properties": map[string]any{
				"url": map[string]any{"type": "string"},
				"js":  map[string]any{"type": "boolean"},
			},
		},
		Handler: b.handleFetchURL,
	})
	reg.Register(Spec{
		Name:        "web_search",
		Description: "Search the web. Requires a configured search provider.",
		Capability:  CapNetwork,
		Schema: map[string]any{
			"required":   []any{"query"},
			"properties": map[string]any{"query": map[string]any{"type": "string"}},
		},
		Handler: b.handleWebSearch,
	})
	reg.Register(Spec{
		Name:        "spawn_subagent",
		Description: "Delegate a task to a subagent of the given kind.",
		Capability:  CapExecute,
		Schema: map[string]any{
			"required": []any{"kind", "prompt"},
			"properties": map[string]any{
				"kind":   map[string]any{"type": "string"},
				"prompt": map[string]any{"type": "string"},
			},
		},
		Handler: b.handleSpawnSubagent,
	})
	reg.Register(Spec{
		Name:        "todo_write",
		Description: "Replace the conversation's working todo list.",
		Capability:  CapWrite,
		Schema: map[string]any{
			"required":   []any{"items"},
			"properties": map[string]any{"items": map[string]any{"type": "array"}},
		},
		Handler: b.handleTodoWrite,
	})
}

func (b *Builtins) handleRead(tc Context, args json.RawMessage) (Result, error) {
	var a struct {
		Path   string `json:"path"`
		Offset int    `json:"offset"`
		Limit  int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.read", err)
	}
	data, err := os.ReadFile(resolvePath(tc.WorkDir, a.Path))
	if err != nil {
		return Result{}, cerr.New(cerr.KindIO, "tool.read", err)
	}
	content := string(data)
	if a.Offset > 0 || a.Limit > 0 {
		lines := strings.Split(content, "\n")
		start := a.Offset
		if start > len(lines) {
			start = len(lines)
		}
		end := len(lines)
		if a.Limit > 0 && start+a.Limit < end {
			end = start + a.Limit
		}
		content = strings.Join(lines[start:end], "\n")
	}
	return Result{Content: content}, nil
}

func (b *Builtins) handleWrite(tc Context, args json.RawMessage) (Result, error) {
	var a struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.write", err)
	}
	full := resolvePath(tc.WorkDir, a.Path)
	if err := lock.AtomicWrite(full, []byte(a.Content), 0o644); err != nil {
		return Result{}, err
	}
	return Result{Content: fmt.Sprintf("wrote %d bytes to %s", len(a.Content), a.Path)}, nil
}

func (b *Builtins) handleEdit(tc Context, args json.RawMessage) (Result, error) {
	var a struct {
		Path    string `json:"path"`
		OldText string `json:"old_text"`
		NewText string `json:"new_text"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.edit", err)
	}
	return b.applyTextEdits(tc, a.Path, []textEdit{{a.OldText, a.NewText}})
}

type textEdit struct {
	Old, New string
}

func (b *Builtins) handleMultiEdit(tc Context, args json.RawMessage) (Result, error) {
	var a struct {
		Path  string `json:"path"`
		Edits []struct {
			OldText string `json:"old_text"`
			NewText string `json:"new_text"`
		} `json:"edits"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.multi_edit", err)
	}
	edits := make([]textEdit, len(a.Edits))
	for i, e := range a.Edits {
		edits[i] = textEdit{e.OldText, e.NewText}
	}
	return b.applyTextEdits(tc, a.Path, edits)
}

// applyTextEdits reads the file once, applies every edit in order
// in-memory, and atomic-writes the result once — so a later edit failing
// to find its target leaves the file completely untouched.
func (b *Builtins) applyTextEdits(tc Context, path string, edits []textEdit) (Result, error) {
	full := resolvePath(tc.WorkDir, path)
	guard, err := b.Locks.Acquire(full, lock.Exclusive, lock.DefaultConfig())
	if err != nil {
		return Result{}, err
	}
	defer guard.Release()

	data, err := os.ReadFile(full)
	if err != nil {
		return Result{}, cerr.New(cerr.KindIO, "tool.edit", err)
	}
	content := string(data)
	for i, e := range edits {
		if !strings.Contains(content, e.Old) {
			return Result{}, cerr.Newf(cerr.KindInvalidInput, "tool.edit", "edit %d: old_text not found in %s", i, path)
		}
		content = strings.Replace(content, e.Old, e.New, 1)
	}
	if err := lock.AtomicWrite(full, []byte(content), 0o644); err != nil {
		return Result{}, err
	}
	return Result{Content: fmt.Sprintf("applied %d edit(s) to %s", len(edits), path)}, nil
}

func (b *Builtins) handleGrep(tc Context, args json.RawMessage) (Result, error) {
	var a struct {
		Pattern string `json:"pattern"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.grep", err)
	}
	re, err := regexp.Compile(a.Pattern)
	if err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.grep", err)
	}
	root := tc.WorkDir
	if a.Path != "" {
		root = resolvePath(tc.WorkDir, a.Path)
	}

	var matches []string
	_ = filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			if re.MatchString(line) {
				rel, _ := filepath.Rel(tc.WorkDir, p)
				matches = append(matches, fmt.Sprintf("%s:%d:%s", rel, i+1, line))
			}
		}
		return nil
	})
	return Result{Content: strings.Join(matches, "\n"), Metadata: map[string]any{"count": len(matches)}}, nil
}

func (b *Builtins) handleGlob(tc Context, args json.RawMessage) (Result, error) {
	var a struct {
		Pattern string `json:"pattern"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.glob", err)
	}
	matches, err := filepath.Glob(resolvePath(tc.WorkDir, a.Pattern))
	if err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.glob", err)
	}
	sort.Strings(matches)
	return Result{Content: strings.Join(matches, "\n")}, nil
}

func (b *Builtins) handleLS(tc Context, args json.RawMessage) (Result, error) {
	var a struct {
		Path string `json:"path"`
	}
	_ = json.Unmarshal(args, &a)
	dir := tc.WorkDir
	if a.Path != "" {
		dir = resolvePath(tc.WorkDir, a.Path)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, cerr.New(cerr.KindIO, "tool.ls", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return Result{Content: strings.Join(names, "\n")}, nil
}

func (b *Builtins) handleExecute(tc Context, args json.RawMessage) (Result, error) {
	var a struct {
		Command string `json:"command"`
		Timeout int     `json:"timeout_seconds"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.execute", err)
	}
	timeout := 120 * time.Second
	if a.Timeout > 0 {
		timeout = time.Duration(a.Timeout) * time.Second
	}
	res, err := xexec.Run(tc.Context, xexec.Config{
		Argv:    []string{a.Command},
		Shell:   true,
		Dir:     tc.WorkDir,
		Timeout: timeout,
		Sandbox: b.Sandbox,
	})
	if err != nil {
		return Result{}, err
	}
	out := res.Stdout
	if res.Stderr != "" {
		out += "\n--- stderr ---\n" + res.Stderr
	}
	return Result{
		Content: out,
		IsError: res.ExitCode != 0,
		Metadata: map[string]any{
			"exit_code": res.ExitCode,
			"timed_out": res.TimedOut,
		},
	}, nil
}

func (b *Builtins) handleApplyPatch(tc Context, args json.RawMessage) (Result, error) {
	var a struct {
		Patch string `json:"patch"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.apply_patch", err)
	}
	changes, err := patch.Parse(a.Patch)
	if err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.apply_patch", err)
	}
	results := b.Applier.Apply(changes)
	var failed []string
	for _, r := range results {
		if !r.Success {
			failed = append(failed, fmt.Sprintf("%s: %v", r.Path, r.Err))
		}
	}
	return Result{
		Content: fmt.Sprintf("applied %d/%d file change(s)", len(results)-len(failed), len(results)),
		IsError: len(failed) > 0,
		Metadata: map[string]any{
			"failed": failed,
		},
	}, nil
}

func (b *Builtins) handlePropose(tc Context, args json.RawMessage) (Result, error) {
	var a struct {
		Patch string `json:"patch"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.propose", err)
	}
	changes, err := patch.Parse(a.Patch)
	if err != nil {
		return Result{IsError: true, Content: err.Error()}, nil
	}
	var sb strings.Builder
	for _, c := range changes {
		fmt.Fprintf(&sb, "%s: +%d -%d\n", c.TargetPath(), c.LinesAdded(), c.LinesRemoved())
	}
	return Result{Content: sb.String()}, nil
}

func (b *Builtins) handleFetchURL(tc Context, args json.RawMessage) (Result, error) {
	var a struct {
		URL string `json:"url"`
		// JS, when true, requests headless-Chrome rendering via rod
		// rather than a plain GET; most pages don't need it.
		JS bool `json:"js,omitempty"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.fetch_url", err)
	}

	if a.JS {
		if body, ok := fetchRendered(tc, a.URL); ok {
			content := text.Truncate(body, 20000, text.TruncateEnd, "")
			return Result{Content: content, Metadata: map[string]any{"rendered": true}}, nil
		}
		// Headless Chrome unavailable or the navigation failed; fall
		// through to a plain GET rather than failing the tool call.
	}

	req, err := http.NewRequestWithContext(tc.Context, http.MethodGet, a.URL, nil)
	if err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.fetch_url", err)
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{}, cerr.New(cerr.KindIO, "tool.fetch_url", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return Result{}, cerr.New(cerr.KindIO, "tool.fetch_url", err)
	}
	content := text.Truncate(string(body), 20000, text.TruncateEnd, "")
	return Result{Content: content, Metadata: map[string]any{"status": resp.StatusCode, "rendered": false}}, nil
}

// fetchRendered loads url in headless Chrome via rod and returns its
// post-render HTML. ok is false whenever a browser binary can't be
// located or the page fails to load, signaling the caller to fall back
// to a plain HTTP GET.
func fetchRendered(tc Context, url string) (string, bool) {
	path, exists := launcher.LookPath()
	if !exists {
		return "", false
	}
	u := launcher.New().Bin(path).Headless(true).MustLaunch()
	browser := rod.New().ControlURL(u).Context(tc.Context)
	if err := browser.Connect(); err != nil {
		return "", false
	}
	defer browser.Close()

	page, err := browser.Page(rod.PageInfo{})
	if err != nil {
		return "", false
	}
	defer page.Close()
	if err := page.Navigate(url); err != nil {
		return "", false
	}
	if err := page.WaitLoad(); err != nil {
		return "", false
	}
	html, err := page.HTML()
	if err != nil {
		return "", false
	}
	return html, true
}

func (b *Builtins) handleWebSearch(tc Context, args json.RawMessage) (Result, error) {
	return Result{}, cerr.New(cerr.KindPolicy, "tool.web_search", fmt.Errorf("no search provider configured"))
}

func (b *Builtins) handleSpawnSubagent(tc Context, args json.RawMessage) (Result, error) {
	var a struct {
		Kind   string `json:"kind"`
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.spawn_subagent", err)
	}
	if b.Spawn == nil {
		return Result{}, cerr.New(cerr.KindNotFound, "tool.spawn_subagent", fmt.Errorf("no subagent runtime wired"))
	}
	out, err := b.Spawn(tc, a.Kind, a.Prompt)
	if err != nil {
		return Result{}, err
	}
	return Result{Content: out}, nil
}

func (b *Builtins) handleTodoWrite(tc Context, args json.RawMessage) (Result, error) {
	var a struct {
		Items []TodoItem `json:"items"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{}, cerr.New(cerr.KindInvalidInput, "tool.todo_write", err)
	}
	b.todosMu.Lock()
	b.todos[tc.ConvoID] = a.Items
	b.todosMu.Unlock()

	done := 0
	for _, it := range a.Items {
		if it.Done {
			done++
		}
	}
	return Result{Content: fmt.Sprintf("%d/%d done", done, len(a.Items))}, nil
}

// Todos returns the current todo list for a conversation.
func (b *Builtins) Todos(convoID string) []TodoItem {
	b.todosMu.Lock()
	defer b.todosMu.Unlock()
	return append([]TodoItem(nil), b.todos[convoID]...)
}
