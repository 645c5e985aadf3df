// ABOUTME: VisibleWidth computes the display width of status text with grapheme-aware segmentation
// ABOUTME: ANSI sequences count as zero width; fast path for printable ASCII

package width

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// VisibleWidth returns the number of terminal cells s occupies. Escape
// sequences are skipped and grapheme clusters measured as a unit, so East
// Asian characters and emoji count as two cells.
func VisibleWidth(s string) int {
	if isPlainASCII(s) {
		return len(s)
	}
	w := 0
	forEachSegment(s, func(seg string, isSeq bool, cw int) bool {
		if !isSeq {
			w += cw
		}
		return true
	})
	return w
}

// isPlainASCII returns true if s contains only printable ASCII (0x20-0x7E).
func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}

// graphemeWidth returns the display width of a single grapheme cluster.
func graphemeWidth(cluster string) int {
	if cluster == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(cluster)
	return runewidth.RuneWidth(r)
}

// forEachSegment walks s as a sequence of escape sequences and grapheme
// clusters. fn receives the segment, whether it is an escape sequence, and
// its cell width; returning false stops the walk.
func forEachSegment(s string, fn func(seg string, isSeq bool, width int) bool) {
	state := -1
	for len(s) > 0 {
		if s[0] == '\x1b' {
			end := sequenceEnd(s, 0)
			if !fn(s[:end], true, 0) {
				return
			}
			s = s[end:]
			state = -1
			continue
		}
		cluster, rest, _, newState := uniseg.FirstGraphemeClusterInString(s, state)
		if !fn(cluster, false, graphemeWidth(cluster)) {
			return
		}
		s = rest
		state = newState
	}
}
