package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cortexagent/cortex/internal/action"
	"github.com/cortexagent/cortex/internal/convo"
	"github.com/cortexagent/cortex/internal/llm"
	"github.com/cortexagent/cortex/internal/session"
)

var tuiCmd = &cobra.Command{
	Use:     "tui",
	GroupID: GroupCore,
	Short:   "Launch the interactive session TUI",
	Long: `Launch Cortex's interactive terminal UI: a scrollback of the
conversation, a single-line input, and a status line, driven by the
same session loop "cortex run" drives non-interactively.

This is the default when cortex is invoked with no subcommand.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	userStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	agentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	statusStyle = lipgloss.NewStyle().Faint(true)
	inputStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// tuiModel is the bubbletea model driving the interactive session. Key
// decoding goes through the same action.Mapper the mock terminal uses
// (internal/mockterm), so a binding defined once behaves identically
// whether it arrives from a real terminal or a scripted test capture.
type tuiModel struct {
	sess   *session.Session
	mapper *action.Mapper
	cancel context.CancelFunc

	width, height int
	scrollback    []string
	input         []rune
	status        string
	streaming     strings.Builder
	quitting      bool
}

func newTUIModel(sess *session.Session, cancel context.CancelFunc) *tuiModel {
	m := &tuiModel{sess: sess, mapper: action.NewMapper(), cancel: cancel, status: "ready"}
	m.mapper.PushContext(action.Input)
	// Seed a width before the first WindowSizeMsg arrives, the same call
	// the teacher's dashboard used for its initial layout pass.
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		m.width = w
	}
	return m
}

type sessionEventMsg session.Event

func (m *tuiModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.sess.Out
		if !ok {
			return nil
		}
		return sessionEventMsg(ev)
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case sessionEventMsg:
		m.applyEvent(session.Event(msg))
		if m.quitting {
			return m, tea.Quit
		}
		return m, m.waitForEvent()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ev := decodeKey(msg)

	// Plain printable runes in the Input context are text, not actions —
	// only non-rune keys are resolved through the mapper here: Input's
	// enter/esc, and Global's bindings (ctrl+c, up/down) as the fallback.
	if ev.Type == action.KeyRunes && len(ev.Runes) > 0 {
		m.input = append(m.input, ev.Runes...)
		return m, nil
	}

	switch m.mapper.Resolve(ev) {
	case action.ActionQuit:
		m.quitting = true
		m.cancel()
		return m, nil
	case action.ActionSubmit:
		return m.submit()
	case action.ActionCancel:
		m.input = nil
		return m, nil
	case action.ActionScrollUp, action.ActionScrollDown:
		return m, nil
	}

	if ev.Type == action.KeyBackspace && len(m.input) > 0 {
		m.input = m.input[:len(m.input)-1]
	}
	return m, nil
}

func (m *tuiModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(string(m.input))
	if text == "" {
		return m, nil
	}
	m.input = nil
	m.scrollback = append(m.scrollback, userStyle.Render("you")+"  "+text)
	m.status = "thinking…"
	m.sess.In <- session.Submission{ID: text, Op: session.OpUserTurn, Text: text}
	return m, nil
}

func (m *tuiModel) applyEvent(ev session.Event) {
	switch ev.Kind {
	case session.EventAgentMessage:
		m.streaming.WriteString(ev.Text)
	case session.EventTaskComplete:
		rendered := renderMarkdown(m.streaming.String())
		m.scrollback = append(m.scrollback, agentStyle.Render("cortex")+"  "+rendered)
		m.streaming.Reset()
		m.status = "ready"
	case session.EventToolCallRequested:
		m.status = fmt.Sprintf("running %s…", ev.ToolName)
	case session.EventError:
		m.scrollback = append(m.scrollback, lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("error: "+ev.Err))
		m.status = "ready"
	case session.EventShutdownComplete:
		m.quitting = true
	}
}

// renderMarkdown renders assistant text through glamour when it looks
// like it carries markdown structure (a fence or heading); plain prose
// is left untouched rather than paying glamour's layout cost for nothing.
func renderMarkdown(s string) string {
	if !strings.Contains(s, "```") && !strings.Contains(s, "#") {
		return s
	}
	out, err := glamour.Render(s, "dark")
	if err != nil {
		return s
	}
	return strings.TrimRight(out, "\n")
}

func (m *tuiModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("cortex") + "\n\n")
	for _, line := range m.scrollback {
		b.WriteString(line + "\n\n")
	}
	if m.streaming.Len() > 0 {
		b.WriteString(agentStyle.Render("cortex") + "  " + m.streaming.String() + "\n\n")
	}
	b.WriteString(statusStyle.Render(m.status) + "\n")
	b.WriteString(inputStyle.Render("> "+string(m.input)) + "\n")
	return b.String()
}

// decodeKey converts a bubbletea key message into Cortex's own KeyEvent,
// the same type the mock terminal (internal/mockterm) synthesizes, so
// action.Mapper.Resolve never needs to know which backend produced it.
func decodeKey(msg tea.KeyMsg) action.KeyEvent {
	switch msg.Type {
	case tea.KeyEnter:
		return action.KeyEvent{Type: action.KeyEnter}
	case tea.KeyEsc:
		return action.KeyEvent{Type: action.KeyEscape}
	case tea.KeyTab:
		return action.KeyEvent{Type: action.KeyTab}
	case tea.KeyShiftTab:
		return action.KeyEvent{Type: action.KeyShiftTab}
	case tea.KeyBackspace:
		return action.KeyEvent{Type: action.KeyBackspace}
	case tea.KeyUp:
		return action.KeyEvent{Type: action.KeyUp}
	case tea.KeyDown:
		return action.KeyEvent{Type: action.KeyDown}
	case tea.KeyLeft:
		return action.KeyEvent{Type: action.KeyLeft}
	case tea.KeyRight:
		return action.KeyEvent{Type: action.KeyRight}
	case tea.KeyHome:
		return action.KeyEvent{Type: action.KeyHome}
	case tea.KeyEnd:
		return action.KeyEvent{Type: action.KeyEnd}
	case tea.KeyPgUp:
		return action.KeyEvent{Type: action.KeyPgUp}
	case tea.KeyPgDown:
		return action.KeyEvent{Type: action.KeyPgDown}
	case tea.KeyCtrlC:
		return action.KeyEvent{Type: action.KeyCtrlC}
	case tea.KeyCtrlD:
		return action.KeyEvent{Type: action.KeyCtrlD}
	case tea.KeyRunes:
		return action.KeyEvent{Type: action.KeyRunes, Runes: msg.Runes, Alt: msg.Alt}
	default:
		return action.KeyEvent{Type: action.KeyRunes, Runes: msg.Runes, Alt: msg.Alt}
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return usagef("cortex tui requires an interactive terminal; pipe prompts through \"cortex run\" instead")
	}

	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}

	state := convo.NewConversationState()
	rolloutWriter, err := newRolloutWriter(d.home, state.ID, d.workDir, d.cfg.Model)
	if err != nil {
		return fmt.Errorf("opening rollout journal: %w", err)
	}
	defer rolloutWriter.Close()

	sess := session.New(session.Config{
		WorkDir:    d.workDir,
		Model:      d.cfg.Model,
		CLIVersion: cliVersion,
		LLM:        llm.NoopClient{},
		Tools:      d.tools,
		Approval:   d.approval,
		Rollout:    rolloutWriter,
		Hooks:      d.hooksCfg,
		Snapshot:   d.snap,
	})

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go sess.Run(sessCtx)

	model := newTUIModel(sess, cancel)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
