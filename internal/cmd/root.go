// Package cmd implements the cortex CLI surface: tui, run, agents,
// sessions, logs, hooks, mcp, and plugins, wired with
// github.com/spf13/cobra exactly as the teacher's internal/cmd package
// structures one subcommand per file, groups them for --help, and
// returns wrapped errors from RunE rather than calling os.Exit directly.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Command groups, surfaced in `cortex --help`'s grouped command list.
const (
	GroupCore         = "core"
	GroupAgents       = "agents"
	GroupDiag         = "diag"
	GroupIntegrations = "integrations"
)

// ErrUsage marks a RunE failure as an invalid invocation (bad args or
// flags) rather than a runtime failure, so Execute can tell exit code 2
// apart from exit code 1.
var ErrUsage = errors.New("invalid invocation")

// usagef wraps a formatted message as an ErrUsage-classified error.
func usagef(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrUsage)
}

var rootCmd = &cobra.Command{
	Use:           "cortex",
	Short:         "Terminal-native coding agent workbench",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `Cortex is a terminal-native coding agent: a TUI session loop, a tool
registry with approval and sandboxing, skill/agent manifests, and a
rollout journal, driven from a single CLI.

With no subcommand, cortex launches the interactive TUI (equivalent to
"cortex tui"). Use "cortex run <prompt>" to drive one turn
non-interactively, e.g. from a script or CI step.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupCore, Title: "Core:"},
		&cobra.Group{ID: GroupAgents, Title: "Agents & Sessions:"},
		&cobra.Group{ID: GroupDiag, Title: "Diagnostics:"},
		&cobra.Group{ID: GroupIntegrations, Title: "Integrations:"},
	)
}

// requireSubcommand is RunE for a parent command that exists only to
// group subcommands (e.g. "agents", "sessions") and does nothing useful
// invoked bare.
func requireSubcommand(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("unknown subcommand %q", args[0])
	}
	return cmd.Help()
}

// Execute runs the root command and returns the process exit code: 0 on
// success, 130 if interrupted (SIGINT), 2 on invalid invocation
// (ErrUsage), 1 on any other failure.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if ctx.Err() != nil {
		return 130
	}

	fmt.Fprintln(os.Stderr, "error:", err)
	if errors.Is(err, ErrUsage) {
		return 2
	}
	return 1
}
