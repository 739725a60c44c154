// Package subagent implements the subagent runtime: per-kind tool
// allow/deny lists, default iteration caps, and the nested session loop a
// spawned subagent runs under, sharing its parent's event channel.
package subagent

import (
	"context"
	"time"

	"github.com/cortexagent/cortex/internal/cerr"
)

// Kind is one of the built-in subagent roles. Custom kinds are permitted
// (see Config.Kind being a free string) but these carry default caps and
// allow-lists.
type Kind string

const (
	KindResearch      Kind = "research"
	KindReviewer      Kind = "reviewer"
	KindArchitect     Kind = "architect"
	KindDocumentation Kind = "documentation"
	KindSecurity      Kind = "security"
	KindCode          Kind = "code"
	KindRefactor      Kind = "refactor"
	KindTest          Kind = "test"
	KindCustom        Kind = "custom"
)

// KindDefaults describes the default policy for a built-in kind.
type KindDefaults struct {
	MaxIterations int
	AllowedTools  []string // empty means "no restriction beyond DeniedTools"
	DeniedTools   []string
}

// defaults is the SUPPLEMENTED per-kind table: research/reviewer cap at
// 10 iterations, architect/documentation/security at 15, and
// code/refactor/test/custom at 20 — matching how much back-and-forth
// each role plausibly needs before it should hand control back.
var defaults = map[Kind]KindDefaults{
	KindResearch: {
		MaxIterations: 10,
		AllowedTools:  []string{"read", "grep", "glob", "ls", "fetch_url", "web_search"},
	},
	KindReviewer: {
		MaxIterations: 10,
		AllowedTools:  []string{"read", "grep", "glob", "ls"},
	},
	KindArchitect: {
		MaxIterations: 15,
		AllowedTools:  []string{"read", "grep", "glob", "ls", "propose"},
	},
	KindDocumentation: {
		MaxIterations: 15,
		AllowedTools:  []string{"read", "write", "edit", "grep", "glob", "ls"},
	},
	KindSecurity: {
		MaxIterations: 15,
		AllowedTools:  []string{"read", "grep", "glob", "ls", "execute"},
		DeniedTools:   []string{"write", "edit", "multi_edit", "apply_patch"},
	},
	KindCode: {
		MaxIterations: 20,
	},
	KindRefactor: {
		MaxIterations: 20,
	},
	KindTest: {
		MaxIterations: 20,
		DeniedTools:   []string{"apply_patch"},
	},
	KindCustom: {
		MaxIterations: 20,
	},
}

// DefaultsFor returns the default policy for kind, falling back to
// KindCustom's defaults for an unrecognized kind.
func DefaultsFor(kind Kind) KindDefaults {
	if d, ok := defaults[kind]; ok {
		return d
	}
	return defaults[KindCustom]
}

// Config parameterizes one subagent spawn.
type Config struct {
	Kind              Kind
	Prompt            string
	MaxIterations     int // 0 means use DefaultsFor(Kind).MaxIterations
	AllowedTools      []string
	DeniedTools       []string
	ContinueSessionID string // resume a prior subagent run
	Timeout           time.Duration
}

// Status is the terminal outcome of a subagent run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusTimedOut  Status = "timed_out"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Result is what a completed subagent run reports to its parent.
type Result struct {
	Status     Status
	FinalText  string
	Iterations int
	SessionID  string
	Err        error
}

// Step runs one iteration of a subagent's loop: call the model, dispatch
// any tool calls the caller approves, and report whether the subagent is
// finished. Runtime-specific wiring (the actual LLM call, tool dispatch)
// is injected so this package stays decoupled from internal/llm and
// internal/tool.
type Step func(ctx context.Context, iteration int, priorOutput string) (output string, done bool, err error)

// Run drives Step until it reports done, the iteration cap is hit, ctx is
// cancelled, or cfg.Timeout elapses. Checking tool names against cfg's
// lists (IsToolAllowed) is left to the Step — Run only enforces the
// iteration cap and the nested-event-channel cancellation contract.
func Run(ctx context.Context, cfg Config, events chan<- Event, step Step) Result {
	maxIter := cfg.MaxIterations
	if maxIter == 0 {
		maxIter = DefaultsFor(cfg.Kind).MaxIterations
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	emit(events, Event{Kind: EventStarted, AgentKind: cfg.Kind})

	var output string
	for i := 1; i <= maxIter; i++ {
		select {
		case <-ctx.Done():
			status := StatusCancelled
			if ctx.Err() == context.DeadlineExceeded {
				status = StatusTimedOut
			}
			emit(events, Event{Kind: EventEnded, Status: status})
			return Result{Status: status, FinalText: output, Iterations: i - 1, Err: ctx.Err()}
		default:
		}

		out, done, err := step(ctx, i, output)
		output = out
		if err != nil {
			emit(events, Event{Kind: EventEnded, Status: StatusFailed})
			return Result{Status: StatusFailed, FinalText: output, Iterations: i, Err: err}
		}
		emit(events, Event{Kind: EventIteration, Iteration: i})
		if done {
			emit(events, Event{Kind: EventEnded, Status: StatusCompleted})
			return Result{Status: StatusCompleted, FinalText: output, Iterations: i}
		}
	}

	return Result{
		Status:     StatusFailed,
		FinalText:  output,
		Iterations: maxIter,
		Err:        cerr.Newf(cerr.KindToolExecution, "subagent.Run", "iteration cap (%d) reached for kind %q", maxIter, cfg.Kind),
	}
}

// IsToolAllowed reports whether tool may be invoked under cfg, applying
// DeniedTools first (it always wins), then AllowedTools as an allow-list
// if non-empty, else allowing anything not denied.
func IsToolAllowed(cfg Config, tool string) bool {
	d := DefaultsFor(cfg.Kind)
	denied := append(append([]string{}, d.DeniedTools...), cfg.DeniedTools...)
	for _, t := range denied {
		if t == tool {
			return false
		}
	}
	allowed := cfg.AllowedTools
	if len(allowed) == 0 {
		allowed = d.AllowedTools
	}
	if len(allowed) == 0 {
		return true
	}
	for _, t := range allowed {
		if t == tool {
			return true
		}
	}
	return false
}

// EventKind tags a subagent lifecycle Event, delivered on the parent's
// tagged event channel so the TUI can render nested-agent progress
// alongside the main conversation.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventIteration EventKind = "iteration"
	EventEnded     EventKind = "ended"
)

// Event is one subagent lifecycle notification.
type Event struct {
	Kind      EventKind
	AgentKind Kind // the subagent's kind, set on EventStarted
	Iteration int
	Status    Status
}

func emit(ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}
