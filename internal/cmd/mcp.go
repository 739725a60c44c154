package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// mcpCmd accepts invocation but has no MCP transport behind it: the MCP
// client/server protocol is out of scope for this build (see
// DESIGN.md). The subcommand exists so scripts targeting the full CLI
// surface don't fail on an unknown command.
var mcpCmd = &cobra.Command{
	Use:     "mcp",
	GroupID: GroupIntegrations,
	Short:   "Manage MCP server connections (not implemented)",
	Long: `Manage Model Context Protocol server connections.

This build accepts the "mcp" subcommand for CLI-surface compatibility but
implements no MCP transport: there are no servers to list, add, or
remove yet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: MCP transport is not implemented in this build")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
