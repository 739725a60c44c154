package layout

import "github.com/cortexagent/cortex/internal/cellgrid"

// Compute solves the flex layout of root within an available (w,h) cell
// area and writes a Rect into every node of the tree (root included).
// Absolute-positioned children are removed from flow and placed via their
// Inset; Overflow Clip is normalized to Hidden before any measurement that
// cares about it (callers needing the distinction should inspect
// node.Style.Overflow directly — Compute itself never needs to).
func Compute(root *Node, availW, availH float64) {
	root.rect = cellgrid.Rect{X: 0, Y: 0, Width: int(availW), Height: int(availH)}
	layoutChildren(root, availW, availH)
}

func resolveOrFallback(d Dimension, available, fallback float64) float64 {
	if d.IsAuto() {
		return fallback
	}
	return d.resolve(available)
}

// layoutChildren arranges n's children along n's main axis within the
// space n.rect already occupies.
func layoutChildren(n *Node, availW, availH float64) {
	horizontal := n.Style.FlexDirection == Row || n.Style.FlexDirection == RowReverse
	reverse := n.Style.FlexDirection == RowReverse || n.Style.FlexDirection == ColumnReverse

	mainAvail, crossAvail := availW, availH
	if !horizontal {
		mainAvail, crossAvail = availH, availW
	}

	type flexChild struct {
		node       *Node
		basis      float64
		grow       float64
		shrink     float64
		crossSize  float64
		autoCross  bool
		finalMain  float64
		finalCross float64
	}

	var flow []*flexChild
	var absolute []*Node

	for _, c := range n.Children {
		if c.Style.Display == DisplayNone {
			continue
		}
		if c.Style.Position == Absolute {
			absolute = append(absolute, c)
			continue
		}
		var basis float64
		if c.Style.FlexBasis.IsAuto() {
			if horizontal {
				basis = resolveOrFallback(c.Style.Width, mainAvail, 0)
			} else {
				basis = resolveOrFallback(c.Style.Height, mainAvail, 0)
			}
		} else {
			basis = c.Style.FlexBasis.resolve(mainAvail)
		}
		cross := crossAvail
		autoCross := true
		if horizontal {
			if !c.Style.Height.IsAuto() {
				cross = c.Style.Height.resolve(crossAvail)
				autoCross = false
			}
		} else {
			if !c.Style.Width.IsAuto() {
				cross = c.Style.Width.resolve(crossAvail)
				autoCross = false
			}
		}
		flow = append(flow, &flexChild{node: c, basis: basis, grow: c.Style.FlexGrow, shrink: c.Style.FlexShrink, crossSize: cross, autoCross: autoCross})
	}

	// Distribute remaining (or negative) main-axis space via grow/shrink.
	var totalBasis, totalGrow, totalShrink float64
	for _, fc := range flow {
		totalBasis += fc.basis
		totalGrow += fc.grow
		totalShrink += fc.shrink
	}
	remaining := mainAvail - totalBasis

	for _, fc := range flow {
		fc.finalMain = fc.basis
		if remaining > 0 && totalGrow > 0 {
			fc.finalMain += remaining * (fc.grow / totalGrow)
		} else if remaining < 0 && totalShrink > 0 {
			weight := fc.shrink * fc.basis
			var totalWeight float64
			for _, other := range flow {
				totalWeight += other.shrink * other.basis
			}
			if totalWeight > 0 {
				fc.finalMain += remaining * (weight / totalWeight)
			}
		}
		if fc.finalMain < 0 {
			fc.finalMain = 0
		}
		if fc.autoCross && n.Style.AlignItems == AlignStretch {
			fc.finalCross = crossAvail
		} else {
			fc.finalCross = fc.crossSize
		}
	}

	// Justify-content: compute starting offset and gap between items.
	var usedMain float64
	for _, fc := range flow {
		usedMain += fc.finalMain
	}
	freeMain := mainAvail - usedMain
	if freeMain < 0 {
		freeMain = 0
	}

	var offset, gap float64
	count := len(flow)
	switch n.Style.JustifyContent {
	case JustifyEnd:
		offset = freeMain
	case JustifyCenter:
		offset = freeMain / 2
	case JustifySpaceBetween:
		if count > 1 {
			gap = freeMain / float64(count-1)
		}
	case JustifySpaceAround:
		if count > 0 {
			gap = freeMain / float64(count)
			offset = gap / 2
		}
	case JustifySpaceEvenly:
		if count > 0 {
			gap = freeMain / float64(count+1)
			offset = gap
		}
	}

	order := flow
	if reverse {
		order = make([]*flexChild, len(flow))
		for i, fc := range flow {
			order[len(flow)-1-i] = fc
		}
	}

	cursor := offset
	for _, fc := range order {
		var x, y, w, h int
		if horizontal {
			x, y = int(cursor), 0
			w, h = int(fc.finalMain), int(fc.finalCross)
		} else {
			x, y = 0, int(cursor)
			w, h = int(fc.finalCross), int(fc.finalMain)
		}
		fc.node.rect = cellgrid.Rect{
			X:      n.rect.X + x,
			Y:      n.rect.Y + y,
			Width:  w,
			Height: h,
		}
		cursor += fc.finalMain + gap
		layoutChildren(fc.node, float64(w), float64(h))
	}

	for _, a := range absolute {
		placeAbsolute(n, a)
	}
}

// placeAbsolute positions an absolutely-positioned child relative to n's
// box using its Inset edges; unset edges default to 0.
func placeAbsolute(parent, n *Node) {
	w := resolveOrFallback(n.Style.Width, float64(parent.rect.Width), float64(parent.rect.Width))
	h := resolveOrFallback(n.Style.Height, float64(parent.rect.Height), float64(parent.rect.Height))
	left := resolveOrFallback(n.Style.Inset.Left, float64(parent.rect.Width), 0)
	top := resolveOrFallback(n.Style.Inset.Top, float64(parent.rect.Height), 0)
	n.rect = cellgrid.Rect{
		X:      parent.rect.X + int(left),
		Y:      parent.rect.Y + int(top),
		Width:  int(w),
		Height: int(h),
	}
	layoutChildren(n, w, h)
}
