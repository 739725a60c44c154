package mockterm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cortexagent/cortex/internal/action"
)

// Action is one timeline entry preceding a captured frame: either a key
// press routed through the action mapper, or a raw named event (resize,
// paste, …) a caller wants to record without a KeyEvent backing it.
type Action struct {
	Label string // e.g. `KeyPress("Enter")` or "Resize(80,24)"
}

// KeyPress formats a key-press Action the way §8's mock-terminal scenario
// expects it to read back: KeyPress("Enter").
func KeyPress(name string) Action {
	return Action{Label: fmt.Sprintf("KeyPress(%q)", name)}
}

// Frame is one labeled capture: the snapshot plus the actions that
// occurred since the previous frame (or since recording started, for the
// first frame).
type Frame struct {
	Label           string
	Snapshot        Snapshot
	PrecedingActions []Action
}

// Recorder wraps a Backend with an action timeline, producing a sequence
// of labeled Frames a test or doc generator can assert against or render
// as Markdown/JSON.
type Recorder struct {
	Backend *Backend
	Mapper  *action.Mapper

	frames  []Frame
	pending []Action
}

// NewRecorder wires a Recorder around a fresh width x height Backend and
// action mapper.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{
		Backend: NewBackend(width, height),
		Mapper:  action.NewMapper(),
	}
}

// Capture snapshots the backend's current buffer under label, attaching
// every action recorded since the last Capture (or since the Recorder was
// created).
func (r *Recorder) Capture(label string) Frame {
	f := Frame{Label: label, Snapshot: r.Backend.Snapshot(), PrecedingActions: r.pending}
	r.pending = nil
	r.frames = append(r.frames, f)
	return f
}

// SendKey resolves ev through the Recorder's mapper, records it on the
// pending action list for the next Capture, and returns the resolved
// action.
func (r *Recorder) SendKey(name string, ev action.KeyEvent) action.KeyAction {
	r.pending = append(r.pending, KeyPress(name))
	return r.Mapper.Resolve(ev)
}

// Note appends an arbitrary labeled Action to the pending list, for
// callers driving the backend directly (resize, paste, tool events)
// rather than through SendKey.
func (r *Recorder) Note(label string) {
	r.pending = append(r.pending, Action{Label: label})
}

// Frames returns every Frame captured so far, in order.
func (r *Recorder) Frames() []Frame { return r.frames }

// reportFrame is the JSON-serializable shape of one Frame.
type reportFrame struct {
	Label            string   `json:"label"`
	Width            int      `json:"width"`
	Height           int      `json:"height"`
	ASCII            string   `json:"ascii"`
	PrecedingActions []string `json:"preceding_actions"`
}

// JSON renders every captured Frame as a JSON array, for tooling
// consuming recorded sessions programmatically.
func (r *Recorder) JSON() ([]byte, error) {
	out := make([]reportFrame, len(r.frames))
	for i, f := range r.frames {
		actions := make([]string, len(f.PrecedingActions))
		for j, a := range f.PrecedingActions {
			actions[j] = a.Label
		}
		out[i] = reportFrame{
			Label:            f.Label,
			Width:            f.Snapshot.Width,
			Height:           f.Snapshot.Height,
			ASCII:            f.Snapshot.ASCII,
			PrecedingActions: actions,
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// Markdown renders every captured Frame as a Markdown report: one section
// per frame with its preceding actions and the buffer rendered in a fenced
// code block, suitable for committing alongside a regression test or a
// docs page.
func (r *Recorder) Markdown(title string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	for i, f := range r.frames {
		fmt.Fprintf(&sb, "## Frame %q\n\n", f.Label)
		if len(f.PrecedingActions) > 0 {
			sb.WriteString("Preceding actions:\n\n")
			for _, a := range f.PrecedingActions {
				fmt.Fprintf(&sb, "- %s\n", a.Label)
			}
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "```\n%s\n```\n", f.Snapshot.ASCII)
		if i < len(r.frames)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
