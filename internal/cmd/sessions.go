package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cortexagent/cortex/internal/config"
	"github.com/cortexagent/cortex/internal/rollout"
	"github.com/cortexagent/cortex/internal/style"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	GroupID: GroupAgents,
	Short:   "Inspect past conversation rollouts",
	Long: `Inspect the rollout journal: one JSONL file per conversation under
$CORTEX_HOME/rollouts, written by every "cortex run" and "cortex tui"
invocation.`,
	RunE: requireSubcommand,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded conversations",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one conversation's meta header and record count",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export one conversation's full rollout as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsExport,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsExportCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// listConversationIDs finds every rollout file's conversation id under
// home, newest first.
func listConversationIDs(home string) ([]string, error) {
	dir := filepath.Join(home, "rollouts")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing rollouts: %w", err)
	}

	type withTime struct {
		id  string
		mod int64
	}
	var ids []withTime
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		ids = append(ids, withTime{id: strings.TrimSuffix(e.Name(), ".jsonl"), mod: info.ModTime().UnixNano()})
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].mod > ids[j].mod })

	out := make([]string, len(ids))
	for i, w := range ids {
		out[i] = w.id
	}
	return out, nil
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	home := config.Home()
	ids, err := listConversationIDs(home)
	if err != nil {
		return err
	}

	t := style.NewTable(
		style.Column{Name: "ID", Width: 36},
		style.Column{Name: "MODEL", Width: 16},
		style.Column{Name: "CWD", MaxWidth: 50},
	)
	for _, id := range ids {
		r, err := rollout.Read(home, id)
		if err != nil {
			continue
		}
		t.AddRow(id, r.Meta.Model, r.Meta.CWD)
	}
	fmt.Fprint(cmd.OutOrStdout(), t.Render())
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	r, err := rollout.Read(config.Home(), args[0])
	if err != nil {
		return fmt.Errorf("reading session %q: %w", args[0], err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:        %s\n", r.Meta.ID)
	if r.Meta.ParentID != "" {
		fmt.Fprintf(out, "parent_id: %s\n", r.Meta.ParentID)
	}
	fmt.Fprintf(out, "model:     %s\n", r.Meta.Model)
	fmt.Fprintf(out, "cwd:       %s\n", r.Meta.CWD)
	fmt.Fprintf(out, "timestamp: %s\n", r.Meta.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(out, "records:   %d\n", len(r.Records))
	return nil
}

func runSessionsExport(cmd *cobra.Command, args []string) error {
	r, err := rollout.Read(config.Home(), args[0])
	if err != nil {
		return fmt.Errorf("reading session %q: %w", args[0], err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session %q: %w", args[0], err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
