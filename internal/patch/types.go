// Package patch parses unified diff, git-extended diff, and search/replace
// patch text into FileChange values, and applies them to the filesystem
// with fuzzy hunk matching and §4.E locking.
package patch

// LineKind tags one line of a Hunk.
type LineKind int

const (
	Context LineKind = iota
	Add
	Remove
)

// HunkLine is a single line within a Hunk, tagged by kind.
type HunkLine struct {
	Kind LineKind
	Text string
}

// Hunk is a contiguous block of additions/removals plus surrounding
// context within a unified diff.
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Section            string
	Lines              []HunkLine
}

// LinesAdded counts Add lines in the hunk.
func (h Hunk) LinesAdded() int {
	n := 0
	for _, l := range h.Lines {
		if l.Kind == Add {
			n++
		}
	}
	return n
}

// LinesRemoved counts Remove lines in the hunk.
func (h Hunk) LinesRemoved() int {
	n := 0
	for _, l := range h.Lines {
		if l.Kind == Remove {
			n++
		}
	}
	return n
}

// FileChange describes the change to apply to a single file.
type FileChange struct {
	OldPath    string
	NewPath    string
	IsNew      bool
	IsDeleted  bool
	IsRename   bool
	IsBinary   bool
	OldMode    string
	NewMode    string
	Hunks      []Hunk
}

// LinesAdded sums LinesAdded across all hunks.
func (c FileChange) LinesAdded() int {
	n := 0
	for _, h := range c.Hunks {
		n += h.LinesAdded()
	}
	return n
}

// LinesRemoved sums LinesRemoved across all hunks.
func (c FileChange) LinesRemoved() int {
	n := 0
	for _, h := range c.Hunks {
		n += h.LinesRemoved()
	}
	return n
}

// TargetPath returns the path a change should be applied to: NewPath if
// present (the common case, and always for new/renamed files), else
// OldPath (a delete, or an edit that records only the old path), else
// empty when neither path is recorded.
func (c FileChange) TargetPath() string {
	if c.NewPath != "" {
		return c.NewPath
	}
	return c.OldPath
}
