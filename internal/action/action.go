// Package action maps (KeyEvent, Context) pairs to a closed set of
// KeyAction variants, the way the teacher's tui/feed package maps
// bubbletea key.Binding sets to panel-local behaviors, generalized to an
// explicit context stack instead of one struct per panel.
package action

import "github.com/charmbracelet/bubbles/key"

// Context names a UI region whose bindings take precedence over Global.
type Context string

const (
	Global       Context = "global"
	Input        Context = "input"
	Chat         Context = "chat"
	Sidebar      Context = "sidebar"
	Approval     Context = "approval"
	Help         Context = "help"
	Modal        Context = "modal"
	Autocomplete Context = "autocomplete"
)

// KeyAction is the closed set of actions a binding can resolve to.
type KeyAction string

const (
	ActionNone           KeyAction = ""
	ActionQuit           KeyAction = "quit"
	ActionHelp           KeyAction = "help"
	ActionFocusNext      KeyAction = "focus_next"
	ActionFocusPrev      KeyAction = "focus_prev"
	ActionToggleSidebar  KeyAction = "toggle_sidebar"
	ActionScrollUp       KeyAction = "scroll_up"
	ActionScrollDown     KeyAction = "scroll_down"
	ActionScrollTop      KeyAction = "scroll_top"
	ActionScrollBottom   KeyAction = "scroll_bottom"
	ActionCopy           KeyAction = "copy"
	ActionPaste          KeyAction = "paste"
	ActionSubmit         KeyAction = "submit"
	ActionCancel         KeyAction = "cancel"
	ActionApprove        KeyAction = "approve"
	ActionDeny           KeyAction = "deny"
	ActionApproveSession KeyAction = "approve_session"
	ActionApproveAlways  KeyAction = "approve_always"
	ActionNavUp          KeyAction = "nav_up"
	ActionNavDown        KeyAction = "nav_down"
	ActionNavTop         KeyAction = "nav_top"
	ActionNavBottom      KeyAction = "nav_bottom"
)

// KeyEvent is Cortex's own key representation, decoded once from the
// terminal backend's native event type (a bubbletea tea.KeyMsg for the
// real backend, or a synthetic one for the mock terminal).
type KeyEvent struct {
	Runes []rune
	Type  KeyType
	Alt   bool
}

// KeyType enumerates the non-printable keys the mapper understands.
type KeyType int

const (
	KeyRunes KeyType = iota
	KeyEnter
	KeyEscape
	KeyTab
	KeyShiftTab
	KeyBackspace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPgUp
	KeyPgDown
	KeyCtrlC
	KeyCtrlD
)

// binding is one (context, key) -> action entry.
type binding struct {
	ctx     Context
	matcher key.Binding
	action  KeyAction
}

// Mapper resolves KeyEvents to KeyActions using a context stack: the
// top-of-stack context's bindings are tried first, then Global, then None.
// New contexts never inherit bindings implicitly — only Global is
// consulted as a fallback.
type Mapper struct {
	bindings []binding
	stack    []Context
}

// NewMapper builds a Mapper pre-loaded with the default bindings.
func NewMapper() *Mapper {
	m := &Mapper{stack: []Context{Global}}
	m.loadDefaults()
	return m
}

// PushContext makes ctx the active (highest-priority) context.
func (m *Mapper) PushContext(ctx Context) { m.stack = append(m.stack, ctx) }

// PopContext removes the active context, unless it is the last one (Global
// is never popped).
func (m *Mapper) PopContext() {
	if len(m.stack) > 1 {
		m.stack = m.stack[:len(m.stack)-1]
	}
}

// ActiveContext returns the current top-of-stack context.
func (m *Mapper) ActiveContext() Context { return m.stack[len(m.stack)-1] }

// Bind registers a binding for a context. Declared programmatically, not
// loaded from a config file — matching the spec's "defaults covering
// quit, help, focus cycle, …" being code, not data.
func (m *Mapper) Bind(ctx Context, b key.Binding, a KeyAction) {
	m.bindings = append(m.bindings, binding{ctx: ctx, matcher: b, action: a})
}

// Resolve maps an event to an action: context-specific binding first, then
// Global, then ActionNone.
func (m *Mapper) Resolve(ev KeyEvent) KeyAction {
	active := m.ActiveContext()
	if a, ok := m.lookup(active, ev); ok {
		return a
	}
	if active != Global {
		if a, ok := m.lookup(Global, ev); ok {
			return a
		}
	}
	return ActionNone
}

func (m *Mapper) lookup(ctx Context, ev KeyEvent) (KeyAction, bool) {
	for _, b := range m.bindings {
		if b.ctx != ctx {
			continue
		}
		if matches(b.matcher, ev) {
			return b.action, true
		}
	}
	return ActionNone, false
}

// matches reports whether ev satisfies the bubbles/key.Binding's key
// strings. We reimplement the match ourselves (rather than routing
// through bubbletea's Update loop) because KeyEvent can originate from
// the mock terminal, which never produces a real tea.KeyMsg.
func matches(b key.Binding, ev KeyEvent) bool {
	for _, k := range b.Keys() {
		if keyString(ev) == k {
			return true
		}
	}
	return false
}

func keyString(ev KeyEvent) string {
	switch ev.Type {
	case KeyEnter:
		return "enter"
	case KeyEscape:
		return "esc"
	case KeyTab:
		return "tab"
	case KeyShiftTab:
		return "shift+tab"
	case KeyBackspace:
		return "backspace"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyHome:
		return "home"
	case KeyEnd:
		return "end"
	case KeyPgUp:
		return "pgup"
	case KeyPgDown:
		return "pgdown"
	case KeyCtrlC:
		return "ctrl+c"
	case KeyCtrlD:
		return "ctrl+d"
	default:
		s := string(ev.Runes)
		if ev.Alt {
			return "alt+" + s
		}
		return s
	}
}

// loadDefaults installs the baseline bindings named in the spec: quit,
// help, focus cycle, sidebar toggle, scroll, copy/paste, tool-approval
// verdicts, and vim-style chat navigation.
func (m *Mapper) loadDefaults() {
	m.Bind(Global, key.NewBinding(key.WithKeys("ctrl+c", "q")), ActionQuit)
	m.Bind(Global, key.NewBinding(key.WithKeys("?")), ActionHelp)
	m.Bind(Global, key.NewBinding(key.WithKeys("tab")), ActionFocusNext)
	m.Bind(Global, key.NewBinding(key.WithKeys("shift+tab")), ActionFocusPrev)
	m.Bind(Global, key.NewBinding(key.WithKeys("ctrl+b")), ActionToggleSidebar)
	m.Bind(Global, key.NewBinding(key.WithKeys("up")), ActionScrollUp)
	m.Bind(Global, key.NewBinding(key.WithKeys("down")), ActionScrollDown)
	m.Bind(Global, key.NewBinding(key.WithKeys("y")), ActionCopy)
	m.Bind(Global, key.NewBinding(key.WithKeys("p")), ActionPaste)

	m.Bind(Input, key.NewBinding(key.WithKeys("enter")), ActionSubmit)
	m.Bind(Input, key.NewBinding(key.WithKeys("esc")), ActionCancel)

	m.Bind(Approval, key.NewBinding(key.WithKeys("y")), ActionApprove)
	m.Bind(Approval, key.NewBinding(key.WithKeys("n")), ActionDeny)
	m.Bind(Approval, key.NewBinding(key.WithKeys("s")), ActionApproveSession)
	m.Bind(Approval, key.NewBinding(key.WithKeys("a")), ActionApproveAlways)

	m.Bind(Chat, key.NewBinding(key.WithKeys("j")), ActionNavDown)
	m.Bind(Chat, key.NewBinding(key.WithKeys("k")), ActionNavUp)
	m.Bind(Chat, key.NewBinding(key.WithKeys("g")), ActionNavTop)
	m.Bind(Chat, key.NewBinding(key.WithKeys("G")), ActionNavBottom)
}
