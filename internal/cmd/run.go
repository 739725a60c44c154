package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cortexagent/cortex/internal/convo"
	"github.com/cortexagent/cortex/internal/llm"
	"github.com/cortexagent/cortex/internal/session"
)

const cliVersion = "0.1.0"

var (
	runModel  string
	runJSON   bool
)

var runCmd = &cobra.Command{
	Use:     "run <prompt>",
	GroupID: GroupCore,
	Short:   "Run one turn non-interactively",
	Long: `Run a single conversation turn against the given prompt and exit, printing
the assistant's final response to stdout.

Unlike "cortex tui", run never enters an interactive loop: it submits
one user turn, streams the session's events to the terminal, and exits
once the turn reaches a terminal phase (task complete or error).

Examples:
  cortex run "summarize the diff in this repo"
  cortex run --model gpt-5 "write a test for internal/lock"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runModel, "model", "", "override the configured model for this turn")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "emit raw session events as JSON lines instead of rendered text")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	prompt := strings.Join(args, " ")

	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}

	model := runModel
	if model == "" {
		model = d.cfg.Model
	}

	state := convo.NewConversationState()
	rolloutWriter, err := newRolloutWriter(d.home, state.ID, d.workDir, model)
	if err != nil {
		return fmt.Errorf("opening rollout journal: %w", err)
	}
	defer rolloutWriter.Close()

	sess := session.New(session.Config{
		WorkDir:    d.workDir,
		Model:      model,
		CLIVersion: cliVersion,
		LLM:        llm.NoopClient{},
		Tools:      d.tools,
		Approval:   d.approval,
		Rollout:    rolloutWriter,
		Hooks:      d.hooksCfg,
		Snapshot:   d.snap,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sess.Run(runCtx)

	sess.In <- session.Submission{ID: "1", Op: session.OpUserTurn, Text: prompt}

	return drainUntilDone(cmd, sess)
}

// drainUntilDone prints sess.Out events (rendered text, or raw JSON lines
// under --json) until a terminal event (task complete or error) arrives,
// then sends OpShutdown and returns the outcome as an error or nil. The
// assistant's message text is buffered rather than streamed char-by-char,
// since run is one-shot and can afford to wait for the full message
// before rendering it through glamour at the resolved terminal width.
func drainUntilDone(cmd *cobra.Command, sess *session.Session) error {
	var message strings.Builder
	for ev := range sess.Out {
		if runJSON {
			fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", ev)
		} else {
			renderEvent(cmd, ev, &message)
		}

		switch ev.Kind {
		case session.EventTaskComplete:
			sess.In <- session.Submission{ID: "shutdown", Op: session.OpShutdown}
		case session.EventError:
			sess.In <- session.Submission{ID: "shutdown", Op: session.OpShutdown}
			return fmt.Errorf("run: %s", ev.Err)
		case session.EventShutdownComplete:
			return nil
		}
	}
	return nil
}

func renderEvent(cmd *cobra.Command, ev session.Event, message *strings.Builder) {
	out := cmd.OutOrStdout()
	switch ev.Kind {
	case session.EventAgentMessage:
		message.WriteString(ev.Text)
	case session.EventToolCallRequested:
		fmt.Fprintf(cmd.ErrOrStderr(), "\n[tool] %s\n", ev.ToolName)
	case session.EventToolResult:
		if ev.ToolIsErr {
			fmt.Fprintf(cmd.ErrOrStderr(), "[tool error] %s\n", ev.ToolResult)
		}
	case session.EventTaskComplete:
		fmt.Fprintln(out, renderFinal(message.String()))
		message.Reset()
	}
}

// renderFinal renders a finished assistant message through glamour,
// wrapped to the caller's terminal width; piped output (not a terminal)
// is left as plain text since glamour's layout only helps a human reader.
func renderFinal(s string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return s
	}
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(renderWidth()))
	if err != nil {
		return s
	}
	out, err := r.Render(s)
	if err != nil {
		return s
	}
	return strings.TrimRight(out, "\n")
}

// renderWidth returns the terminal column width to wrap rendered output
// to, falling back to 80 when stdout isn't a terminal (piped output, CI
// logs) the way the teacher's dashboard falls back on term.GetSize errors.
func renderWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}
