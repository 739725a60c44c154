package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cortexagent/cortex/internal/hooks"
	"github.com/cortexagent/cortex/internal/style"
)

var hooksCmd = &cobra.Command{
	Use:     "hooks",
	GroupID: GroupDiag,
	Short:   "Inspect the configured lifecycle hooks",
	Long: `List the hooks configured in .cortex/hooks.json: which lifecycle event
each one binds to, its matcher, and whether it blocks the action it
gates.`,
	RunE: runHooks,
}

func init() {
	rootCmd.AddCommand(hooksCmd)
}

func runHooks(cmd *cobra.Command, args []string) error {
	workDir, err := workingDir()
	if err != nil {
		return err
	}

	cfg, err := hooks.Load(filepath.Join(workDir, ".cortex", "hooks.json"))
	if err != nil {
		return fmt.Errorf("loading hooks config: %w", err)
	}

	t := style.NewTable(
		style.Column{Name: "TYPE", Width: 18},
		style.Column{Name: "MATCHER", Width: 16},
		style.Column{Name: "BLOCKING", Width: 8},
		style.Column{Name: "COMMAND", MaxWidth: 60},
	)
	total := 0
	for hookType, list := range cfg.Hooks {
		for _, h := range list {
			blocking := "no"
			if hooks.IsBlocking(hookType) {
				blocking = "yes"
			}
			matcher := h.Matcher
			if matcher == "" {
				matcher = "*"
			}
			t.AddRow(string(hookType), matcher, blocking, h.Command)
			total++
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), t.Render())
	if total == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "  (no hooks configured)")
	}
	return nil
}
