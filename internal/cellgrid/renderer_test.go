package cellgrid

import (
	"strings"
	"testing"
)

func TestRendererNoopFlushEmitsNothing(t *testing.T) {
	r := NewRenderer(10, 3)
	var sb strings.Builder
	r.Flush(&sb) // first flush is a full repaint of blanks

	var sb2 strings.Builder
	r.BeginFrame()
	// Next() is blank again (cleared) and equals Current() (also blank).
	n := r.Flush(&sb2)
	if n != 0 {
		t.Fatalf("expected 0 bytes for no-op flush, got %d: %q", n, sb2.String())
	}
}

func TestRendererMinimalDiffBoundedByFullRepaint(t *testing.T) {
	r := NewRenderer(20, 5)
	var sb strings.Builder
	r.Flush(&sb)

	r.BeginFrame()
	r.Next().SetString(0, 0, "hello", Style{Fg: Opaque(255, 0, 0)})
	full := r.FullRepaintLen()

	var sb2 strings.Builder
	n := r.Flush(&sb2)
	if n > full {
		t.Fatalf("diff emission (%d) exceeded full repaint (%d)", n, full)
	}
	if n == 0 {
		t.Fatalf("expected non-zero emission after a change")
	}
}

func TestRendererCoalescesContiguousRun(t *testing.T) {
	r := NewRenderer(20, 5)
	var sb strings.Builder
	r.Flush(&sb)

	r.BeginFrame()
	r.Next().SetString(0, 0, "abcd", Style{})
	var sb2 strings.Builder
	r.Flush(&sb2)
	out := sb2.String()
	// Only one cursor-move escape (CUP) should appear for the whole run.
	if strings.Count(out, "H") != 1 {
		t.Fatalf("expected exactly one cursor move for a contiguous run, got output %q", out)
	}
}

func TestRendererResizeForcesFullRepaint(t *testing.T) {
	r := NewRenderer(5, 5)
	var sb strings.Builder
	r.Flush(&sb)

	r.Resize(6, 6)
	r.BeginFrame()
	var sb2 strings.Builder
	n := r.Flush(&sb2)
	if n == 0 {
		t.Fatalf("expected a full repaint after resize even though next is blank")
	}
}

func TestStyleTransitionFullResetOnAttributeRemoval(t *testing.T) {
	// A 1x1 grid, so the bold cell is the last style written in the first
	// frame and the second frame's transition starts from bold.
	r := NewRenderer(1, 1)
	var sb strings.Builder
	r.BeginFrame()
	r.Next().Set(0, 0, Cell{Symbol: "a", Attributes: AttrBold})
	r.Flush(&sb)

	r.BeginFrame()
	r.Next().Set(0, 0, Cell{Symbol: "a"}) // bold removed
	var sb2 strings.Builder
	r.Flush(&sb2)
	if !strings.Contains(sb2.String(), "\x1b[0m") {
		t.Fatalf("expected a full SGR reset when an attribute is removed, got %q", sb2.String())
	}
}
