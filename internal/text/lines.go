package text

// LineEnding classifies which terminator a Line was found with.
type LineEnding int

const (
	EndingNone LineEnding = iota // last line, no trailing terminator
	EndingLF
	EndingCR
	EndingCRLF
)

// Line is one line of text as produced by LineIterator.
type Line struct {
	Content    string
	ByteOffset int
	LineNumber int // 0-based
	Ending     LineEnding
}

// IterateLines walks text, classifying LF/CR/CRLF terminators and
// yielding one Line per call to yield. Iteration stops early if yield
// returns false.
func IterateLines(text string, yield func(Line) bool) {
	offset := 0
	lineNo := 0
	i := 0
	for i < len(text) {
		start := i
		for i < len(text) && text[i] != '\n' && text[i] != '\r' {
			i++
		}
		content := text[start:i]

		var ending LineEnding
		switch {
		case i < len(text) && text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n':
			ending = EndingCRLF
			i += 2
		case i < len(text) && text[i] == '\r':
			ending = EndingCR
			i++
		case i < len(text) && text[i] == '\n':
			ending = EndingLF
			i++
		default:
			ending = EndingNone
		}

		if !yield(Line{Content: content, ByteOffset: offset, LineNumber: lineNo, Ending: ending}) {
			return
		}
		offset = i
		lineNo++
	}
}

// LineCount returns the number of lines in text, where a trailing
// terminator starts (but does not complete) one more empty line — i.e.
// "Hello\nWorld\n" has 3 lines: "Hello", "World", "".
func LineCount(text string) int {
	n := 0
	last := EndingNone
	IterateLines(text, func(l Line) bool { n++; last = l.Ending; return true })
	if text == "" {
		return 1
	}
	if last != EndingNone {
		n++
	}
	return n
}

// OffsetToPosition converts a byte offset into a (line, grapheme-column)
// pair, both 0-based.
func OffsetToPosition(text string, offset int) (line, column int) {
	var result Line
	found := false
	IterateLines(text, func(l Line) bool {
		lineEndByte := l.ByteOffset + len(l.Content) + endingLen(l.Ending)
		result = l
		found = true
		return offset >= lineEndByte
	})
	if !found {
		return 0, 0
	}
	rel := offset - result.ByteOffset
	if rel < 0 {
		rel = 0
	}
	if rel > len(result.Content) {
		rel = len(result.Content)
	}
	col := len(Clusters(result.Content[:rel]))
	return result.LineNumber, col
}

// PositionToOffset converts a 0-based (line, grapheme-column) pair back to
// a byte offset into text.
func PositionToOffset(text string, line, column int) int {
	var result Line
	found := false
	IterateLines(text, func(l Line) bool {
		if l.LineNumber == line {
			result = l
			found = true
			return false
		}
		return true
	})
	if !found {
		return len(text)
	}
	clusters := Clusters(result.Content)
	if column > len(clusters) {
		column = len(clusters)
	}
	byteLen := 0
	for i := 0; i < column; i++ {
		byteLen += len(clusters[i])
	}
	return result.ByteOffset + byteLen
}

func endingLen(e LineEnding) int {
	switch e {
	case EndingLF, EndingCR:
		return 1
	case EndingCRLF:
		return 2
	default:
		return 0
	}
}

// DetectLineEnding reports the dominant line ending style used in text, or
// EndingLF if text has no line breaks (the common default).
func DetectLineEnding(text string) LineEnding {
	counts := map[LineEnding]int{}
	IterateLines(text, func(l Line) bool {
		counts[l.Ending]++
		return true
	})
	best := EndingLF
	bestN := -1
	for e, n := range counts {
		if e == EndingNone {
			continue
		}
		if n > bestN {
			best, bestN = e, n
		}
	}
	return best
}

// endingBytes renders a LineEnding as its literal bytes.
func endingBytes(e LineEnding) string {
	switch e {
	case EndingLF:
		return "\n"
	case EndingCR:
		return "\r"
	case EndingCRLF:
		return "\r\n"
	default:
		return ""
	}
}
