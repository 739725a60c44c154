package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cortexagent/cortex/internal/lock"
)

// ApplyResult reports the outcome of applying one FileChange.
type ApplyResult struct {
	Path    string
	Success bool
	Err     error
}

// Applier applies FileChanges to disk, taking a lock per file and going
// through atomic_write for every mutation, as required by §4.D.
type Applier struct {
	Locks *lock.Registry
	Root  string // base directory changes are resolved against
}

// NewApplier builds an Applier rooted at root, sharing the given lock registry.
func NewApplier(root string, locks *lock.Registry) *Applier {
	if locks == nil {
		locks = lock.NewRegistry()
	}
	return &Applier{Locks: locks, Root: root}
}

func (a *Applier) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.Root, p)
}

// Apply applies every FileChange independently; a failure on one file
// does not prevent others from being attempted. Each file change is
// atomic: either it fully succeeds or the file is left untouched.
func (a *Applier) Apply(changes []FileChange) []ApplyResult {
	results := make([]ApplyResult, 0, len(changes))
	for _, c := range changes {
		results = append(results, a.applyOne(c))
	}
	return results
}

func (a *Applier) applyOne(c FileChange) ApplyResult {
	target := c.TargetPath()
	if target == "" && !c.IsDeleted {
		return ApplyResult{Success: false, Err: fmt.Errorf("patch: file change has no target path")}
	}

	full := a.resolve(target)
	guard, err := a.Locks.Acquire(full+".lock", lock.Exclusive, lock.DefaultConfig())
	if err != nil {
		return ApplyResult{Path: target, Success: false, Err: fmt.Errorf("patch: locking %s: %w", target, err)}
	}
	defer guard.Release()

	switch {
	case c.IsDeleted:
		return a.applyDelete(c, full)
	case c.IsNew:
		return a.applyNewFile(c, full)
	default:
		return a.applyEdit(c, full)
	}
}

func (a *Applier) applyNewFile(c FileChange, full string) ApplyResult {
	var sb strings.Builder
	for _, h := range c.Hunks {
		for _, l := range h.Lines {
			if l.Kind == Add {
				sb.WriteString(l.Text)
				sb.WriteString("\n")
			}
		}
	}
	if err := lock.AtomicWrite(full, []byte(sb.String()), 0o644); err != nil {
		return ApplyResult{Path: c.TargetPath(), Success: false, Err: err}
	}
	return ApplyResult{Path: c.TargetPath(), Success: true}
}

func (a *Applier) applyDelete(c FileChange, full string) ApplyResult {
	// Verify the file matches the expected old content before removing it,
	// when the patch carried removal lines to check against.
	if len(c.Hunks) > 0 {
		data, err := os.ReadFile(full)
		if err != nil {
			return ApplyResult{Path: c.OldPath, Success: false, Err: fmt.Errorf("patch: reading file to delete: %w", err)}
		}
		expected := oldContentOf(c.Hunks[0])
		if expected != "" && !strings.Contains(string(data), expected) {
			return ApplyResult{Path: c.OldPath, Success: false, Err: fmt.Errorf("patch: file content does not match expected deletion content")}
		}
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return ApplyResult{Path: c.OldPath, Success: false, Err: err}
	}
	return ApplyResult{Path: c.OldPath, Success: true}
}

func oldContentOf(h Hunk) string {
	var sb strings.Builder
	for _, l := range h.Lines {
		if l.Kind != Add {
			sb.WriteString(l.Text)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (a *Applier) applyEdit(c FileChange, full string) ApplyResult {
	data, err := os.ReadFile(full)
	if err != nil {
		return ApplyResult{Path: c.TargetPath(), Success: false, Err: fmt.Errorf("patch: reading %s: %w", c.TargetPath(), err)}
	}
	lines := splitLinesKeepEnding(string(data))

	newLines := make([]string, len(lines))
	copy(newLines, lines)

	for _, h := range c.Hunks {
		pos, ok := locateHunk(newLines, h)
		if !ok {
			return ApplyResult{Path: c.TargetPath(), Success: false, Err: fmt.Errorf("patch: hunk at line %d could not be located (context mismatch)", h.OldStart)}
		}
		newLines = spliceHunk(newLines, pos, h)
	}

	out := strings.Join(newLines, "")
	if err := lock.AtomicWrite(full, []byte(out), 0o644); err != nil {
		return ApplyResult{Path: c.TargetPath(), Success: false, Err: err}
	}
	return ApplyResult{Path: c.TargetPath(), Success: true}
}

// splitLinesKeepEnding splits text into lines, each retaining its trailing
// "\n" so re-joining reproduces the original byte-for-byte (modulo a
// missing final newline, which is then simply absent from the last entry).
func splitLinesKeepEnding(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.SplitAfter(text, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// hunkOldLines returns the hunk's "before" lines (context + removed), each
// with a trailing newline appended so they compare against file lines.
func hunkOldLines(h Hunk) []string {
	var out []string
	for _, l := range h.Lines {
		if l.Kind != Add {
			out = append(out, l.Text+"\n")
		}
	}
	return out
}

// fuzzWindow bounds the fuzzy search radius: N = max(3*hunk_lines, 20).
func fuzzWindow(h Hunk) int {
	n := 3 * len(h.Lines)
	if n < 20 {
		n = 20
	}
	return n
}

// locateHunk finds the 0-based line index in lines where h's old block
// starts. It first tries the exact hinted position (OldStart-1), then a
// fuzzy search within ±fuzzWindow(h), scoring candidates by count of
// matching old-block lines (context and removed) and breaking ties by
// distance to the hint.
func locateHunk(lines []string, h Hunk) (int, bool) {
	old := hunkOldLines(h)
	if len(old) == 0 {
		// Pure-insertion hunk: splice at the hinted position.
		pos := h.OldStart - 1
		if pos < 0 {
			pos = 0
		}
		if pos > len(lines) {
			pos = len(lines)
		}
		return pos, true
	}

	hint := h.OldStart - 1
	if hint < 0 {
		hint = 0
	}

	if matchesAt(lines, old, hint) {
		return hint, true
	}

	window := fuzzWindow(h)
	bestPos := -1
	bestScore := -1
	for delta := 1; delta <= window; delta++ {
		for _, cand := range []int{hint - delta, hint + delta} {
			if cand < 0 || cand+len(old) > len(lines) {
				continue
			}
			score := matchScore(lines, old, cand)
			if score == len(old) {
				return cand, true // exact match found while scanning outward
			}
			if score > bestScore || (score == bestScore && bestPos >= 0 && abs(cand-hint) < abs(bestPos-hint)) {
				bestScore = score
				bestPos = cand
			}
		}
	}

	// Accept the best fuzzy candidate only if a clear majority of context
	// lines matched; otherwise the hunk is rejected.
	if bestPos >= 0 && bestScore*2 >= len(old) {
		return bestPos, true
	}
	return 0, false
}

func matchesAt(lines, old []string, pos int) bool {
	if pos < 0 || pos+len(old) > len(lines) {
		return false
	}
	for i, ol := range old {
		if lines[pos+i] != ol {
			return false
		}
	}
	return true
}

func matchScore(lines, old []string, pos int) int {
	score := 0
	for i, ol := range old {
		if lines[pos+i] == ol {
			score++
		}
	}
	return score
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// spliceHunk replaces the old block at pos with the hunk's add+context
// lines in order, returning the updated line slice.
func spliceHunk(lines []string, pos int, h Hunk) []string {
	oldCount := 0
	for _, l := range h.Lines {
		if l.Kind != Add {
			oldCount++
		}
	}

	var replacement []string
	for _, l := range h.Lines {
		if l.Kind != Remove {
			replacement = append(replacement, l.Text+"\n")
		}
	}

	out := make([]string, 0, len(lines)-oldCount+len(replacement))
	out = append(out, lines[:pos]...)
	out = append(out, replacement...)
	out = append(out, lines[pos+oldCount:]...)
	return out
}
