package cellgrid

// Cell is one terminal grid position: a grapheme cluster plus its style.
// The symbol is a string rather than a rune to hold multi-rune grapheme
// clusters (combining marks, ZWJ emoji sequences) as a single unit.
type Cell struct {
	Symbol     string
	Fg         Color
	Bg         Color
	Attributes Attr
}

// Blank is the default cell: a single space with no style.
var Blank = Cell{Symbol: " "}

// Style extracts the Cell's style triple.
func (c Cell) Style() Style {
	return Style{Fg: c.Fg, Bg: c.Bg, Attributes: c.Attributes}
}

// WithStyle returns a copy of c carrying the given style.
func (c Cell) WithStyle(s Style) Cell {
	c.Fg, c.Bg, c.Attributes = s.Fg, s.Bg, s.Attributes
	return c
}

// Rect is a clip/viewport rectangle in cell coordinates.
type Rect struct {
	X, Y, Width, Height int
}

// Contains reports whether (x,y) falls within r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}
