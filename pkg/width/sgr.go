// ABOUTME: SGR state machine that tracks the styling active at a point in a status string
// ABOUTME: Wrap uses it to re-open colours on continuation rows with one minimal sequence

package width

import (
	"strconv"
	"strings"
)

// sgrState is the accumulated effect of the SGR sequences seen so far.
type sgrState struct {
	bold      bool
	dim       bool
	italic    bool
	underline bool
	blink     bool
	reverse   bool
	hidden    bool
	strike    bool
	fg        string // e.g. "31", "92" or "38;5;196"
	bg        string
}

func (t *sgrState) reset() {
	*t = sgrState{}
}

// apply folds one complete SGR sequence ("\x1b[1;31m") into the state.
func (t *sgrState) apply(seq string) {
	if !IsSGR(seq) {
		return
	}
	params := seq[2 : len(seq)-1]
	if params == "" {
		t.reset()
		return
	}

	parts := strings.Split(params, ";")
	for i := 0; i < len(parts); i++ {
		code, err := strconv.Atoi(parts[i])
		if err != nil {
			continue
		}
		switch {
		case code == 0:
			t.reset()
		case code == 1:
			t.bold = true
		case code == 2:
			t.dim = true
		case code == 3:
			t.italic = true
		case code == 4:
			t.underline = true
		case code == 5:
			t.blink = true
		case code == 7:
			t.reverse = true
		case code == 8:
			t.hidden = true
		case code == 9:
			t.strike = true
		case code == 22:
			t.bold, t.dim = false, false
		case code == 23:
			t.italic = false
		case code == 24:
			t.underline = false
		case code == 25:
			t.blink = false
		case code == 27:
			t.reverse = false
		case code == 28:
			t.hidden = false
		case code == 29:
			t.strike = false
		case code >= 30 && code <= 37, code >= 90 && code <= 97:
			t.fg = parts[i]
		case code == 39:
			t.fg = ""
		case code >= 40 && code <= 47, code >= 100 && code <= 107:
			t.bg = parts[i]
		case code == 49:
			t.bg = ""
		case code == 38 || code == 48:
			n := extendedLen(parts[i:])
			if n == 0 {
				return
			}
			color := strings.Join(parts[i:i+n], ";")
			if code == 38 {
				t.fg = color
			} else {
				t.bg = color
			}
			i += n - 1
		}
	}
}

// extendedLen returns how many parameters a 38/48 colour spans, or 0 when
// the sequence is malformed.
func extendedLen(parts []string) int {
	if len(parts) < 2 {
		return 0
	}
	switch parts[1] {
	case "5":
		if len(parts) >= 3 {
			return 3
		}
	case "2":
		if len(parts) >= 5 {
			return 5
		}
	}
	return 0
}

// restore returns the shortest SGR sequence re-establishing the state, or
// "" when nothing is active.
func (t *sgrState) restore() string {
	var codes []string

	for _, f := range []struct {
		on   bool
		code string
	}{
		{t.bold, "1"}, {t.dim, "2"}, {t.italic, "3"}, {t.underline, "4"},
		{t.blink, "5"}, {t.reverse, "7"}, {t.hidden, "8"}, {t.strike, "9"},
	} {
		if f.on {
			codes = append(codes, f.code)
		}
	}
	if t.fg != "" {
		codes = append(codes, t.fg)
	}
	if t.bg != "" {
		codes = append(codes, t.bg)
	}

	if len(codes) == 0 {
		return ""
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}
