// Package cellgrid implements the double-buffered cell grid and the
// minimal-diff ANSI renderer described in the TUI rendering core.
package cellgrid

import "github.com/charmbracelet/lipgloss"

// Attr is a bitset of SGR text attributes. Bit positions are fixed for
// wire compatibility with the rollout journal and the mock terminal.
type Attr uint16

const (
	AttrBold Attr = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
	AttrHidden
	AttrStrikethrough
)

// sgrCode maps a single attribute bit to its "set" SGR code.
var sgrCode = map[Attr]int{
	AttrBold:          1,
	AttrDim:           2,
	AttrItalic:        3,
	AttrUnderline:     4,
	AttrBlink:         5,
	AttrReverse:       7,
	AttrHidden:        8,
	AttrStrikethrough: 9,
}

// attrOrder is the stable emission order for attribute SGR codes.
var attrOrder = []Attr{AttrBold, AttrDim, AttrItalic, AttrUnderline, AttrBlink, AttrReverse, AttrHidden, AttrStrikethrough}

// Color is a 32-bit RGBA color. A zero-value Color with Transparent set
// means "emit the terminal's default fg/bg escape" rather than a color.
type Color struct {
	R, G, B, A  uint8
	Transparent bool
}

// Opaque builds a fully-opaque Color from 8-bit channels.
func Opaque(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 0xff}
}

// Default is the sentinel "use terminal default" color.
var Default = Color{Transparent: true}

// FromLipgloss converts a lipgloss.Color into a Color, resolving against
// true color. Lipgloss color parsing failures degrade to Default, mirroring
// the teacher's style package's tolerant handling of malformed color specs.
func FromLipgloss(c lipgloss.TerminalColor) Color {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return Default
	}
	return Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

// Style is the fg/bg/attribute triple carried by every Cell.
type Style struct {
	Fg         Color
	Bg         Color
	Attributes Attr
}

// Equal reports whether two styles render identically.
func (s Style) Equal(o Style) bool {
	return s.Fg == o.Fg && s.Bg == o.Bg && s.Attributes == o.Attributes
}

// Has reports whether the style carries the given attribute bit(s).
func (s Style) Has(a Attr) bool { return s.Attributes&a != 0 }

// With returns a copy of s with the given attribute bit(s) set.
func (s Style) With(a Attr) Style { s.Attributes |= a; return s }
