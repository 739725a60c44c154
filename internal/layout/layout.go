// Package layout is a thin adapter over a flexbox solver, turning a tree
// of Node configs into a Rect per node in cell coordinates. It mirrors the
// taffy-style adapters seen across the corpus TUIs (the teacher drives
// bubbletea/lipgloss layouts by hand; this package gives Cortex the same
// declarative shape without depending on a specific solver implementation,
// so it can be swapped for a real taffy binding later without touching
// callers).
package layout

import "github.com/cortexagent/cortex/internal/cellgrid"

// Dimension is a flex-style size: either automatic, a fixed length in
// cells, or a percentage of the parent's available space.
type Dimension struct {
	kind    dimKind
	length  float64
	percent float64 // 0..100, user-facing; normalized to 0..1 at solve time
}

type dimKind int

const (
	dimAuto dimKind = iota
	dimLength
	dimPercent
)

func Auto() Dimension               { return Dimension{kind: dimAuto} }
func Length(v float64) Dimension    { return Dimension{kind: dimLength, length: v} }
func Percent(v float64) Dimension   { return Dimension{kind: dimPercent, percent: v} }
func (d Dimension) IsAuto() bool    { return d.kind == dimAuto }
func (d Dimension) IsLength() bool  { return d.kind == dimLength }
func (d Dimension) IsPercent() bool { return d.kind == dimPercent }

// resolve returns the dimension in cells given the available space.
func (d Dimension) resolve(available float64) float64 {
	switch d.kind {
	case dimLength:
		return d.length
	case dimPercent:
		return available * (d.percent / 100.0)
	default: // Auto: all of available; resolveOrFallback substitutes a caller fallback
		return available
	}
}

// Size is a pair of dimensions.
type Size[T any] struct{ Width, Height T }

// Edges is a four-sided inset/outset (margin/padding/border).
type Edges[T any] struct{ Top, Right, Bottom, Left T }

// FlexDirection controls the main axis.
type FlexDirection int

const (
	Row FlexDirection = iota
	Column
	RowReverse
	ColumnReverse
)

type FlexWrap int

const (
	NoWrap FlexWrap = iota
	Wrap
	WrapReverse
)

type JustifyContent int

const (
	JustifyStart JustifyContent = iota
	JustifyEnd
	JustifyCenter
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
)

type AlignItems int

const (
	AlignStart AlignItems = iota
	AlignEnd
	AlignCenter
	AlignStretch
	AlignBaseline
)

type AlignContent int

const (
	AlignContentStart AlignContent = iota
	AlignContentEnd
	AlignContentCenter
	AlignContentStretch
	AlignContentSpaceBetween
	AlignContentSpaceAround
)

type AlignSelf int

const (
	AlignSelfAuto AlignSelf = iota
	AlignSelfStart
	AlignSelfEnd
	AlignSelfCenter
	AlignSelfStretch
)

type Position int

const (
	Relative Position = iota
	Absolute
)

// Overflow controls how content exceeding a node's box is handled.
// Clip is treated identically to Hidden, per the adapter's contract.
type Overflow int

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowClip
	OverflowScroll
)

type Display int

const (
	DisplayFlex Display = iota
	DisplayNone
)

// Style carries every flex property a Node needs for the solve.
type Style struct {
	Display        Display
	Position       Position
	Inset          Edges[Dimension]
	Width, Height  Dimension
	MinWidth       Dimension
	MinHeight      Dimension
	MaxWidth       Dimension
	MaxHeight      Dimension
	Margin         Edges[Dimension]
	Padding        Edges[Dimension]
	FlexDirection  FlexDirection
	FlexWrap       FlexWrap
	JustifyContent JustifyContent
	AlignItems     AlignItems
	AlignContent   AlignContent
	AlignSelf      AlignSelf
	FlexGrow       float64
	FlexShrink     float64
	FlexBasis      Dimension
	Overflow       Overflow
}

// DefaultStyle returns a Style with the solver's zero-value defaults
// (row direction, stretch alignment, shrink=1).
func DefaultStyle() Style {
	return Style{
		Width: Auto(), Height: Auto(),
		MinWidth: Auto(), MinHeight: Auto(),
		MaxWidth: Auto(), MaxHeight: Auto(),
		FlexBasis:  Auto(),
		FlexShrink: 1,
		AlignItems: AlignStretch,
	}
}

// Node is one element of the layout tree.
type Node struct {
	Style    Style
	Children []*Node

	rect cellgrid.Rect
}

// NewNode creates a leaf node with the given style.
func NewNode(style Style, children ...*Node) *Node {
	return &Node{Style: style, Children: children}
}

// Rect returns the last-computed rectangle for this node, in parent-root
// coordinates (i.e. already offset, not relative to the parent).
func (n *Node) Rect() cellgrid.Rect { return n.rect }

func effOverflow(o Overflow) Overflow {
	if o == OverflowClip {
		return OverflowHidden
	}
	return o
}
