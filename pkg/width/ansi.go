// ABOUTME: ANSI escape sequence scanning and SGR detection
// ABOUTME: Handles CSI, OSC, string-terminated and two-byte ESC sequences

package width

import "strings"

// IsSGR reports whether seq is a complete Select Graphic Rendition sequence.
// Parameters may only be digits and separators; anything else, control
// characters included, disqualifies the sequence.
func IsSGR(seq string) bool {
	if len(seq) < 3 || !strings.HasPrefix(seq, "\x1b[") || seq[len(seq)-1] != 'm' {
		return false
	}
	for i := 2; i < len(seq)-1; i++ {
		c := seq[i]
		if (c < '0' || c > '9') && c != ';' && c != ':' {
			return false
		}
	}
	return true
}

// sequenceEnd returns the index just past the escape sequence starting at
// s[i]. Unterminated sequences run to the end of s.
func sequenceEnd(s string, i int) int {
	if i >= len(s) || s[i] != '\x1b' {
		return i
	}
	i++
	if i >= len(s) {
		return i
	}

	switch s[i] {
	case '[':
		// CSI: parameters then a final byte in 0x40-0x7E.
		for i++; i < len(s); i++ {
			if s[i] >= 0x40 && s[i] <= 0x7E {
				return i + 1
			}
		}
		return i
	case ']':
		// OSC: terminated by BEL or ST.
		for i++; i < len(s); i++ {
			if s[i] == '\x07' {
				return i + 1
			}
			if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '\\' {
				return i + 2
			}
		}
		return i
	case 'P', '_', '^':
		// DCS, APC, PM: terminated by ST.
		for i++; i < len(s); i++ {
			if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '\\' {
				return i + 2
			}
		}
		return i
	case '(', ')':
		return min(i+2, len(s))
	default:
		return i + 1
	}
}
