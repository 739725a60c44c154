package cellgrid

import (
	"fmt"
	"strings"
)

// Renderer owns the "current" (on-screen truth) and "next" (being-drawn)
// grids and emits a minimal ANSI escape stream for the transition between
// them. Widgets write into Next() during a draw cycle; Flush computes the
// change set, emits escapes, and swaps the grids.
//
// The renderer is synchronous within a draw cycle — callers suspend only
// between frames, never mid-Flush.
type Renderer struct {
	current *Buffer
	next    *Buffer

	// cursor tracks the writer's logical position so moves are emitted
	// lazily: a write immediately following the previous one on the same
	// row needs no cursor-move escape at all.
	cursorRow, cursorCol int
	cursorValid          bool

	lastStyle      Style
	lastStyleValid bool

	fullRepaint bool
}

// NewRenderer allocates a renderer for a width x height terminal.
func NewRenderer(width, height int) *Renderer {
	return &Renderer{
		current:     NewBuffer(width, height),
		next:        NewBuffer(width, height),
		fullRepaint: true,
	}
}

// Next returns the buffer widgets should draw into for the upcoming frame.
// It is cleared at the start of every draw cycle by the caller via
// BeginFrame.
func (r *Renderer) Next() *Buffer { return r.next }

// Current returns the last-flushed, on-screen buffer. Read-only by convention.
func (r *Renderer) Current() *Buffer { return r.current }

// BeginFrame clears Next() so widgets start from a blank grid every frame.
func (r *Renderer) BeginFrame() { r.next.Clear() }

// Resize invalidates both grids and forces a full repaint on the next
// Flush, per the minimal-diff contract.
func (r *Renderer) Resize(width, height int) {
	r.current.Resize(width, height)
	r.next.Resize(width, height)
	r.fullRepaint = true
	r.cursorValid = false
	r.lastStyleValid = false
}

// change is one position whose cell differs between current and next.
type change struct {
	x, y int
	cell Cell
}

// changeSet returns every position where next differs from current, in
// row-major order, enabling the "contiguous run" coalescing in emit.
func (r *Renderer) changeSet() []change {
	var out []change
	for y := 0; y < r.next.Height; y++ {
		for x := 0; x < r.next.Width; x++ {
			nc := r.next.Get(x, y)
			if r.fullRepaint || nc != r.current.Get(x, y) {
				out = append(out, change{x, y, nc})
			}
		}
	}
	return out
}

// Flush computes the change set, writes the minimal ANSI stream to w, and
// swaps current/next. Returns the number of bytes written (tests assert
// this is 0 when Next()==Current(), and <= a full repaint's length
// otherwise).
func (r *Renderer) Flush(w *strings.Builder) int {
	changes := r.changeSet()
	start := w.Len()
	r.emit(w, changes)
	r.current, r.next = r.next, r.current
	r.fullRepaint = false
	return w.Len() - start
}

// FullRepaintLen returns the byte length of a full repaint of Next(),
// independent of Current() — used to validate the minimal-diff invariant
// against "worst case" cost.
func (r *Renderer) FullRepaintLen() int {
	var sb strings.Builder
	var full []change
	for y := 0; y < r.next.Height; y++ {
		for x := 0; x < r.next.Width; x++ {
			full = append(full, change{x, y, r.next.Get(x, y)})
		}
	}
	rr := &Renderer{current: NewBuffer(r.next.Width, r.next.Height), next: r.next}
	rr.emit(&sb, full)
	return sb.Len()
}

func (r *Renderer) emit(w *strings.Builder, changes []change) {
	for i := 0; i < len(changes); i++ {
		c := changes[i]
		r.moveCursor(w, c.x, c.y)
		r.applyStyle(w, c.cell.Style())
		w.WriteString(c.cell.Symbol)
		r.cursorCol = c.x + 1
		r.cursorRow = c.y
		r.cursorValid = true

		// Coalesce a contiguous run on the same row: subsequent changed
		// cells immediately following this one need no cursor move.
		for i+1 < len(changes) {
			nxt := changes[i+1]
			if nxt.y != c.y || nxt.x != c.x+1 {
				break
			}
			r.applyStyle(w, nxt.cell.Style())
			w.WriteString(nxt.cell.Symbol)
			c = nxt
			r.cursorCol = c.x + 1
			i++
		}
	}
}

// moveCursor emits a CUP escape only if the logical cursor isn't already
// at (x,y).
func (r *Renderer) moveCursor(w *strings.Builder, x, y int) {
	if r.cursorValid && r.cursorRow == y && r.cursorCol == x {
		return
	}
	fmt.Fprintf(w, "\x1b[%d;%dH", y+1, x+1)
}

// applyStyle emits the minimal SGR transition from the last-written style
// to target. Per the minimal-diff contract: if any attribute was removed,
// there is no direct "unset" SGR for most attributes, so emit a full reset
// (SGR 0) and reapply the whole target style; otherwise emit only the
// newly-added attributes and any changed fg/bg.
func (r *Renderer) applyStyle(w *strings.Builder, target Style) {
	if r.lastStyleValid && r.lastStyle.Equal(target) {
		return
	}

	removed := r.lastStyleValid && (r.lastStyle.Attributes&^target.Attributes) != 0
	if !r.lastStyleValid || removed {
		w.WriteString("\x1b[0m")
		for _, a := range attrOrder {
			if target.Attributes&a != 0 {
				fmt.Fprintf(w, "\x1b[%dm", sgrCode[a])
			}
		}
		writeColor(w, target.Fg, true)
		writeColor(w, target.Bg, false)
		r.lastStyle = target
		r.lastStyleValid = true
		return
	}

	added := target.Attributes &^ r.lastStyle.Attributes
	for _, a := range attrOrder {
		if added&a != 0 {
			fmt.Fprintf(w, "\x1b[%dm", sgrCode[a])
		}
	}
	if target.Fg != r.lastStyle.Fg {
		writeColor(w, target.Fg, true)
	}
	if target.Bg != r.lastStyle.Bg {
		writeColor(w, target.Bg, false)
	}
	r.lastStyle = target
	r.lastStyleValid = true
}

func writeColor(w *strings.Builder, c Color, fg bool) {
	if c.Transparent {
		if fg {
			w.WriteString("\x1b[39m")
		} else {
			w.WriteString("\x1b[49m")
		}
		return
	}
	if fg {
		fmt.Fprintf(w, "\x1b[38;2;%d;%d;%dm", c.R, c.G, c.B)
	} else {
		fmt.Fprintf(w, "\x1b[48;2;%d;%d;%dm", c.R, c.G, c.B)
	}
}

// ClearScreen returns the escape sequence for a full-screen clear, used
// once at startup before the first Flush.
func ClearScreen() string { return "\x1b[2J" }

// ClearLine returns the escape sequence for clearing from cursor to end of line.
func ClearLine() string { return "\x1b[K" }
