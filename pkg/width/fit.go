// ABOUTME: Fits status text into terminal rows: sanitizing, wrapping and ellipsis truncation
// ABOUTME: The same input always yields the same rows so redraws stay consistent

package width

import (
	"strings"
)

// Ellipsis marks truncated text.
const Ellipsis = "…"

// Sanitize makes s safe to draw on a single status row: control characters
// become spaces and every escape sequence except SGR colouring is dropped,
// so the text can never move the cursor.
func Sanitize(s string) string {
	clean := true
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7f {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\x1b':
			end := sequenceEnd(s, i)
			if seq := s[i:end]; IsSGR(seq) {
				b.WriteString(seq)
			}
			i = end
			continue
		case c == '\r' && i+1 < len(s) && s[i+1] == '\n':
			// CRLF collapses to one space.
		case c < 0x20 || c == 0x7f:
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
		i++
	}
	return b.String()
}

// Wrap breaks s into rows of at most maxWidth cells. Grapheme clusters are
// never split and active SGR colouring is repeated at the start of each
// continuation row. s must already be sanitized.
func Wrap(s string, maxWidth int) []string {
	if maxWidth <= 0 {
		return nil
	}

	var (
		rows  []string
		row   strings.Builder
		style sgrState
		col   int
	)
	forEachSegment(s, func(seg string, isSeq bool, cw int) bool {
		if isSeq {
			style.apply(seg)
			row.WriteString(seg)
			return true
		}
		if col+cw > maxWidth && col > 0 {
			rows = append(rows, row.String())
			row.Reset()
			col = 0
			row.WriteString(style.restore())
		}
		row.WriteString(seg)
		col += cw
		return true
	})
	return append(rows, row.String())
}

// Truncate cuts s to at most maxWidth cells, replacing the tail with an
// ellipsis when anything was removed.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if VisibleWidth(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return Ellipsis
	}

	var b strings.Builder
	col := 0
	target := maxWidth - 1
	forEachSegment(s, func(seg string, isSeq bool, cw int) bool {
		if isSeq {
			b.WriteString(seg)
			return true
		}
		if col+cw > target {
			return false
		}
		b.WriteString(seg)
		col += cw
		return true
	})
	b.WriteString(Ellipsis)
	return b.String()
}

// Fit lays out status text for a terminal maxWidth cells wide using at most
// maxRows rows. With an unknown width (<= 0) the sanitized text is returned
// as a single row. Text beyond the last row is truncated with an ellipsis.
func Fit(s string, maxWidth, maxRows int) []string {
	s = Sanitize(s)
	if maxWidth <= 0 {
		return []string{s}
	}
	if maxRows <= 1 {
		return []string{Truncate(s, maxWidth)}
	}

	rows := Wrap(s, maxWidth)
	if len(rows) <= maxRows {
		return rows
	}
	last := strings.Join(rows[maxRows-1:], "")
	rows = rows[:maxRows]
	rows[maxRows-1] = Truncate(last, maxWidth)
	return rows
}
