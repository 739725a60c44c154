package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// pluginsCmd accepts invocation but has no plugin runtime behind it: a
// plugin execution sandbox is out of scope for this build (see
// DESIGN.md). Skills and agents (see "cortex agents") cover the
// prompt-bundle extensibility surface; this command is reserved for the
// executable-plugin surface the CLI names but doesn't yet run.
var pluginsCmd = &cobra.Command{
	Use:     "plugins",
	GroupID: GroupIntegrations,
	Short:   "Manage Cortex plugins (not implemented)",
	Long: `Manage installed plugins.

This build accepts the "plugins" subcommand for CLI-surface compatibility
but implements no plugin runtime: there is no sandboxed execution
environment to load a plugin into yet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: the plugin runtime is not implemented in this build")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}
