// Package mockterm is a headless terminal backend for tests and docs: it
// drives the same cell grid and action mapper the real TUI does, but
// instead of writing ANSI escapes to a pty it records every draw, cursor
// move, and clear, and can snapshot the result as a buffer or an
// ASCII/ANSI string. A session recorder wraps the backend with an action
// timeline to produce Markdown/JSON reports of a whole TUI run.
package mockterm

import (
	"strings"

	"github.com/cortexagent/cortex/internal/action"
	"github.com/cortexagent/cortex/internal/cellgrid"
)

// DrawCall is one write to the backend's cell buffer.
type DrawCall struct {
	X, Y int
	Text string
	Style cellgrid.Style
}

// CursorMove records a cursor relocation.
type CursorMove struct {
	X, Y int
}

// Backend is the headless test/doc double for the renderer's output side.
// It never talks to a terminal; callers draw into it the same way they
// would draw into a real frame, and inspect what happened afterward via
// Snapshot or the recorded call lists.
type Backend struct {
	buf *cellgrid.Buffer

	Draws   []DrawCall
	Moves   []CursorMove
	Clears  int
	cursorX int
	cursorY int
}

// NewBackend allocates a width x height headless backend.
func NewBackend(width, height int) *Backend {
	return &Backend{buf: cellgrid.NewBuffer(width, height)}
}

// Draw writes text at (x,y) with the given style, recording the call.
func (b *Backend) Draw(x, y int, text string, style cellgrid.Style) {
	b.Draws = append(b.Draws, DrawCall{X: x, Y: y, Text: text, Style: style})
	b.buf.SetString(x, y, text, style)
}

// MoveCursor relocates the logical cursor, recording the call.
func (b *Backend) MoveCursor(x, y int) {
	b.Moves = append(b.Moves, CursorMove{X: x, Y: y})
	b.cursorX, b.cursorY = x, y
}

// Clear resets the buffer to blank, recording the call.
func (b *Backend) Clear() {
	b.Clears++
	b.buf.Clear()
}

// Cursor returns the last position set via MoveCursor.
func (b *Backend) Cursor() (x, y int) { return b.cursorX, b.cursorY }

// Snapshot is one immutable view of the backend's buffer at a point in
// time: the buffer contents plus a plain-text (ASCII) and an SGR-colored
// (ANSI) rendering of it.
type Snapshot struct {
	Width, Height int
	ASCII         string
	ANSI          string
}

// Snapshot renders the current buffer contents. ASCII drops all styling;
// ANSI re-emits it via a throwaway cellgrid.Renderer so the two stay in
// sync with the real terminal backend's escape output.
func (b *Backend) Snapshot() Snapshot {
	s := Snapshot{Width: b.buf.Width, Height: b.buf.Height}

	var ascii strings.Builder
	for y := 0; y < b.buf.Height; y++ {
		for x := 0; x < b.buf.Width; x++ {
			ascii.WriteString(b.buf.Get(x, y).Symbol)
		}
		if y < b.buf.Height-1 {
			ascii.WriteByte('\n')
		}
	}
	s.ASCII = ascii.String()

	r := cellgrid.NewRenderer(b.buf.Width, b.buf.Height)
	copyInto(r.Next(), b.buf)
	var ansi strings.Builder
	r.Flush(&ansi)
	s.ANSI = ansi.String()

	return s
}

func copyInto(dst, src *cellgrid.Buffer) {
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			dst.Set(x, y, src.Get(x, y))
		}
	}
}

// Contains reports whether the current buffer's text contains substr,
// ignoring style — the check §8's mock-terminal scenario needs ("frame A
// contains Hello") without requiring callers to know the exact cell
// coordinates text landed on.
func (s Snapshot) Contains(substr string) bool {
	return strings.Contains(s.ASCII, substr)
}

// SendKey resolves ev through mapper in ctx and returns the action,
// mirroring how the real backend's input loop would route a key through
// internal/action before the TUI model ever sees it.
func SendKey(mapper *action.Mapper, ev action.KeyEvent) action.KeyAction {
	return mapper.Resolve(ev)
}
