package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cortexagent/cortex/internal/approval"
	"github.com/cortexagent/cortex/internal/config"
	"github.com/cortexagent/cortex/internal/hooks"
	"github.com/cortexagent/cortex/internal/llm"
	"github.com/cortexagent/cortex/internal/lock"
	"github.com/cortexagent/cortex/internal/patch"
	"github.com/cortexagent/cortex/internal/rollout"
	"github.com/cortexagent/cortex/internal/sandbox"
	"github.com/cortexagent/cortex/internal/skill"
	"github.com/cortexagent/cortex/internal/snapshot"
	"github.com/cortexagent/cortex/internal/subagent"
	"github.com/cortexagent/cortex/internal/tool"
)

// deps bundles the collaborators a session needs, built once per
// invocation of "run" or "tui" from the on-disk workspace and config.
type deps struct {
	workDir string
	home    string
	cfg     *config.Config

	tools    *tool.Registry
	approval *approval.Queue
	hooksCfg *hooks.Dispatcher
	snap     *snapshot.Service // nil when workDir isn't a git repo
	skills   *skill.Registry
}

// buildDeps wires every collaborator session.Config needs, following the
// builtin tool registration, sandbox, lock, and hook wiring the spec
// describes for a running conversation. The LLM client itself is never
// built here — callers attach llm.NoopClient (or, once a provider is
// configured, a real one) when constructing session.Config.
func buildDeps(ctx context.Context) (*deps, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	home := config.Home()

	cfg, err := config.Load(config.Path())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	locks := lock.NewRegistry()
	applier := patch.NewApplier(workDir, locks)

	sbCfg := sandbox.Config{
		Policy:        sandboxPolicyFromConfig(cfg.SandboxPolicy),
		WorkspaceRoot: workDir,
	}

	reg := tool.NewRegistry()
	builtins := &tool.Builtins{
		Locks:   locks,
		Applier: applier,
		Sandbox: sbCfg,
		Spawn:   spawnSubagent,
	}
	tool.RegisterBuiltins(reg, builtins)

	// NewQueue(nil): no permanent always-allow store is wired yet — see
	// DESIGN.md. Session-scoped allow-lists still work.
	approvalQueue := approval.NewQueue(nil)
	if sbCfg.Policy == sandbox.DangerFullAccess {
		approvalQueue.AutoApproveAll = true
	}

	hooksPath := filepath.Join(workDir, ".cortex", "hooks.json")
	hooksConfig, err := hooks.Load(hooksPath)
	if err != nil {
		return nil, fmt.Errorf("loading hooks config: %w", err)
	}
	dispatcher := hooks.NewDispatcher(hooksConfig, workDir)

	var snap *snapshot.Service
	if snapshot.IsGitRepo(ctx, workDir) {
		snap = snapshot.NewService(workDir, filepath.Join(home, "state"))
	}

	skills := skill.NewRegistry(workDir, home)
	if err := skills.Scan(); err != nil {
		return nil, fmt.Errorf("scanning skills: %w", err)
	}

	return &deps{
		workDir:  workDir,
		home:     home,
		cfg:      cfg,
		tools:    reg,
		approval: approvalQueue,
		hooksCfg: dispatcher,
		snap:     snap,
		skills:   skills,
	}, nil
}

func sandboxPolicyFromConfig(s string) sandbox.Policy {
	switch s {
	case "danger-full-access":
		return sandbox.DangerFullAccess
	case "read-only":
		return sandbox.ReadOnly
	default:
		return sandbox.WorkspaceWrite
	}
}

// newRolloutWriter opens a fresh rollout journal for a new conversation.
func newRolloutWriter(home, convoID, workDir, model string) (*rollout.Writer, error) {
	return rollout.Create(home, rollout.Meta{
		ID:        convoID,
		Timestamp: time.Now(),
		CWD:       workDir,
		Model:     model,
	})
}

// spawnSubagent implements tool.SpawnFunc: it drives a subagent.Run loop
// with a single-shot Step that asks the model for a final answer and
// stops. Multi-turn subagent tool use would need the same turn machinery
// as the top-level session loop; since the model client itself
// (internal/llm.Client) has no real provider wired in this build (see
// DESIGN.md), a single completion per spawn is the most this can
// meaningfully exercise.
func spawnSubagent(tc tool.Context, kind, prompt string) (string, error) {
	events := make(chan subagent.Event, 8)
	go func() {
		for range events {
		}
	}()
	defer close(events)

	client := llm.NoopClient{}
	step := func(ctx context.Context, iteration int, priorOutput string) (string, bool, error) {
		ch, err := client.Stream(ctx, llm.CompletionRequest{Messages: nil})
		if err != nil {
			return priorOutput, true, err
		}
		var text string
		var streamErr error
		for ev := range ch {
			switch ev.Kind {
			case llm.EventDelta:
				text += ev.Delta
			case llm.EventFinish:
				streamErr = ev.Err
			}
		}
		return text, true, streamErr
	}

	cfg := subagent.Config{
		Kind:   subagent.Kind(kind),
		Prompt: prompt,
	}
	result := subagent.Run(tc, cfg, events, step)
	if result.Err != nil {
		return result.FinalText, result.Err
	}
	return result.FinalText, nil
}
