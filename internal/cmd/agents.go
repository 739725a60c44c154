package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cortexagent/cortex/internal/config"
	"github.com/cortexagent/cortex/internal/skill"
	"github.com/cortexagent/cortex/internal/style"
)

var agentsCmd = &cobra.Command{
	Use:     "agents",
	GroupID: GroupAgents,
	Short:   "Manage agent persona manifests",
	Long: `Manage agent persona manifests: directories under .cortex/agents (project)
or ~/.cortex/agents (user-global), each a manifest.toml plus a prompt
body in skill.md. See "cortex agents show <id>" for one agent's details.`,
	RunE: requireSubcommand,
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered agent personas",
	RunE:  runAgentsList,
}

var agentsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one agent persona's manifest and prompt",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentsShow,
}

var agentsCreateCmd = &cobra.Command{
	Use:   "create <id>",
	Short: "Scaffold a new project-local agent persona",
	Long: `Create .cortex/agents/<id>/manifest.toml and skill.md, pre-filled with a
minimal template, ready to edit.`,
	Args: cobra.ExactArgs(1),
	RunE: runAgentsCreate,
}

func init() {
	agentsCmd.AddCommand(agentsListCmd, agentsShowCmd, agentsCreateCmd)
	rootCmd.AddCommand(agentsCmd)
}

// isAgentEntry reports whether e was scanned from an "agents" root
// rather than a "skills" root. skill.Registry doesn't retain Source per
// Entry (see internal/skill), so this infers it from the immediate
// parent directory name both Roots layouts always use.
func isAgentEntry(e skill.Entry) bool {
	return filepath.Base(filepath.Dir(e.Dir)) == "agents"
}

func openSkillRegistry(workDir string) (*skill.Registry, error) {
	reg := skill.NewRegistry(workDir, config.Home())
	if err := reg.Scan(); err != nil {
		return nil, fmt.Errorf("scanning .cortex directories: %w", err)
	}
	return reg, nil
}

func runAgentsList(cmd *cobra.Command, args []string) error {
	workDir, err := workingDir()
	if err != nil {
		return err
	}
	reg, err := openSkillRegistry(workDir)
	if err != nil {
		return err
	}

	t := style.NewTable(
		style.Column{Name: "ID", MaxWidth: 24},
		style.Column{Name: "NAME", MaxWidth: 24},
		style.Column{Name: "DESCRIPTION", MaxWidth: 60},
	)
	for _, e := range reg.List() {
		if !isAgentEntry(e) {
			continue
		}
		t.AddRow(e.ID, e.Manifest.Name, e.Manifest.Description)
	}
	fmt.Fprint(cmd.OutOrStdout(), t.Render())

	if rejected := reg.Rejected(); len(rejected) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "\n%d entries failed validation and were skipped\n", len(rejected))
	}
	return nil
}

func runAgentsShow(cmd *cobra.Command, args []string) error {
	workDir, err := workingDir()
	if err != nil {
		return err
	}
	reg, err := openSkillRegistry(workDir)
	if err != nil {
		return err
	}

	e, ok := reg.Get(args[0])
	if !ok || !isAgentEntry(e) {
		return usagef("no agent named %q", args[0])
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:          %s\n", e.ID)
	fmt.Fprintf(out, "name:        %s\n", e.Manifest.Name)
	fmt.Fprintf(out, "description: %s\n", e.Manifest.Description)
	fmt.Fprintf(out, "version:     %s\n", e.Manifest.Version)
	fmt.Fprintf(out, "author:      %s\n", e.Manifest.Author)
	fmt.Fprintf(out, "tags:        %v\n", e.Manifest.Tags)
	fmt.Fprintf(out, "auto_allowed: %v\n", e.Manifest.AutoAllowed)
	fmt.Fprintf(out, "dir:         %s\n\n", e.Dir)
	fmt.Fprintln(out, e.Prompt)
	return nil
}

const agentManifestTemplate = `name = %q
description = "describe what this agent is for"
version = "0.1.0"
tags = []
`

func runAgentsCreate(cmd *cobra.Command, args []string) error {
	id := args[0]
	workDir, err := workingDir()
	if err != nil {
		return err
	}

	dir := filepath.Join(workDir, ".cortex", "agents", id)
	if err := writeSkillScaffold(dir, fmt.Sprintf(agentManifestTemplate, id), "# "+id+"\n\nDescribe this agent's persona and instructions here.\n"); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", dir)
	return nil
}
