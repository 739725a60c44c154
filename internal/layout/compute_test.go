package layout

import "testing"

func TestComputeRowSplitsEvenlyWithGrow(t *testing.T) {
	left := NewNode(Style{FlexGrow: 1, Width: Auto(), Height: Auto()})
	right := NewNode(Style{FlexGrow: 1, Width: Auto(), Height: Auto()})
	root := NewNode(Style{FlexDirection: Row, Width: Length(100), Height: Length(10)}, left, right)

	Compute(root, 100, 10)

	if left.Rect().Width != 50 || right.Rect().Width != 50 {
		t.Fatalf("expected even 50/50 split, got left=%d right=%d", left.Rect().Width, right.Rect().Width)
	}
	if right.Rect().X != 50 {
		t.Fatalf("expected right child to start at x=50, got %d", right.Rect().X)
	}
}

func TestComputePercentChild(t *testing.T) {
	sidebar := NewNode(Style{Width: Percent(30), Height: Auto()})
	main := NewNode(Style{FlexGrow: 1, Width: Auto(), Height: Auto()})
	root := NewNode(Style{FlexDirection: Row, Width: Length(100), Height: Length(10)}, sidebar, main)

	Compute(root, 100, 10)

	if sidebar.Rect().Width != 30 {
		t.Fatalf("expected sidebar width 30, got %d", sidebar.Rect().Width)
	}
	if main.Rect().Width != 70 {
		t.Fatalf("expected main to absorb remaining width 70, got %d", main.Rect().Width)
	}
}

func TestComputeAbsoluteChildIgnoresFlow(t *testing.T) {
	modal := NewNode(Style{Position: Absolute, Width: Length(10), Height: Length(5)})
	root := NewNode(Style{Width: Length(40), Height: Length(20)}, modal)

	Compute(root, 40, 20)

	if modal.Rect().Width != 10 || modal.Rect().Height != 5 {
		t.Fatalf("absolute child did not keep its own size: %+v", modal.Rect())
	}
}

func TestComputeColumnStretchesCrossAxis(t *testing.T) {
	row := NewNode(Style{Width: Auto(), Height: Length(3)})
	root := NewNode(Style{FlexDirection: Column, AlignItems: AlignStretch, Width: Length(40), Height: Length(20)}, row)

	Compute(root, 40, 20)

	if row.Rect().Width != 40 {
		t.Fatalf("expected stretched child to fill cross axis width 40, got %d", row.Rect().Width)
	}
}
