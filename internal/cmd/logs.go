package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	logsN        int
	logsFollow   bool
	logsLevel    string
	logsJSON     bool
	logsPaths    bool
	logsClear    bool
	logsKeepDays int
)

// logsCmd exposes the full flag surface spec §6 names for inspecting
// Cortex's own logs. The storage backend behind it — where logs actually
// live and how they're tailed/filtered/pruned — is out of scope for this
// build (see DESIGN.md); every flag is accepted and its effect reported,
// but no log store is queried.
var logsCmd = &cobra.Command{
	Use:     "logs",
	GroupID: GroupDiag,
	Short:   "Inspect Cortex's own logs",
	Long: `Inspect Cortex's own structured logs (written via log/slog).

This build accepts the full "logs" flag surface but does not implement a
log storage backend: there is nowhere yet to read -n/-f/--level/--json
results from. Logs are currently only written to stderr for the process
that produced them.`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().IntVarP(&logsN, "n", "n", 100, "number of trailing log lines to show")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "follow new log lines as they're written")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "minimum level to show (debug, info, warn, error)")
	logsCmd.Flags().BoolVar(&logsJSON, "json", false, "emit log entries as JSON lines")
	logsCmd.Flags().BoolVar(&logsPaths, "paths", false, "print the log file paths instead of their contents")
	logsCmd.Flags().BoolVar(&logsClear, "clear", false, "clear stored logs")
	logsCmd.Flags().IntVar(&logsKeepDays, "keep-days", 0, "with --clear, keep this many days of logs instead of clearing all")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	if logsPaths {
		fmt.Fprintln(cmd.OutOrStdout(), "no persistent log store is configured in this build")
		return nil
	}
	if logsClear {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to clear: logs are not persisted in this build")
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "warning: the logs storage backend is not implemented; nothing to show")
	return nil
}
