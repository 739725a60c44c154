// Package text provides grapheme-aware width measurement, line-ending
// aware iteration, and truncation strategies shared by the renderer,
// patch hunks, and tool output formatting.
package text

import (
	"github.com/clipperhouse/displaywidth"
	"github.com/clipperhouse/uax29/v2/graphemes"
	"golang.org/x/text/unicode/norm"
)

// Clusters splits s into grapheme clusters (extended grapheme clusters per
// UAX #29), so combining marks and ZWJ emoji sequences stay single units
// wherever the renderer or a truncation strategy needs to avoid splitting
// one visual character across a boundary. s is normalized to NFC first:
// a decomposed form (e.g. a base rune plus a trailing combining mark typed
// on some IMEs) would otherwise segment into the same visual cluster but
// via a different code path than its precomposed equivalent.
func Clusters(s string) []string {
	s = norm.NFC.String(s)
	var out []string
	seg := graphemes.FromString(s)
	for seg.Next() {
		out = append(out, seg.Value())
	}
	return out
}

// ClusterWidth returns the terminal display width (in cells) of a single
// grapheme cluster, East-Asian-wide aware. Combining marks contribute 0,
// so MeasureWidth(s) == sum of ClusterWidth over Clusters(s).
func ClusterWidth(cluster string) int {
	return displaywidth.String(cluster)
}

// MeasureWidth returns the total display width of s in terminal cells.
func MeasureWidth(s string) int {
	w := 0
	for _, c := range Clusters(s) {
		w += ClusterWidth(c)
	}
	return w
}
