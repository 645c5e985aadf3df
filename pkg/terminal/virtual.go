// ABOUTME: Virtual is a fake terminal for tests: a vt10x screen behind Negotiator and Sizer.
// ABOUTME: Adds scrollback capture, call accounting and error injection around the emulator.

package terminal

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/hinshun/vt10x"
)

// Virtual emulates a terminal screen with scrollback. Writes are parsed as
// they arrive; raw output is kept for byte-level assertions.
type Virtual struct {
	mu sync.Mutex

	width, height int
	advance       AdvanceCode
	enableErr     error
	writeErr      error
	enableCount   int
	restoreCount  int

	vt         vt10x.Terminal
	raw        bytes.Buffer
	pending    []byte
	scrollback []string

	// The emulator keeps the deferred-wrap flag private; it is mirrored
	// here to know when the next glyph scrolls the screen.
	wrapNext  bool
	savedWrap bool
}

// NewVirtual returns a width x height Virtual that negotiates AdvanceIndex.
func NewVirtual(width, height int) *Virtual {
	return &Virtual{
		width:   width,
		height:  height,
		advance: AdvanceIndex,
		vt:      vt10x.New(vt10x.WithSize(width, height)),
	}
}

// SetAdvance selects the advance code Enable reports. With AdvanceIndex
// the screen behaves like a tty with output post-processing: a line feed
// also returns the carriage. With AdvanceNewline it behaves like a console
// with DISABLE_NEWLINE_AUTO_RETURN and a line feed keeps the column.
func (v *Virtual) SetAdvance(code AdvanceCode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.advance = code
}

// SetEnableError makes the next Enable calls fail with err.
func (v *Virtual) SetEnableError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.enableErr = err
}

// SetWriteError makes subsequent writes fail with err.
func (v *Virtual) SetWriteError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.writeErr = err
}

// Enable records the call and reports the configured advance code.
func (v *Virtual) Enable() (AdvanceCode, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.enableCount++
	if v.enableErr != nil {
		return "", v.enableErr
	}
	return v.advance, nil
}

// Restore records the call.
func (v *Virtual) Restore() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.restoreCount++
	return nil
}

// Size returns the emulated dimensions.
func (v *Virtual) Size() (width, height int, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.width, v.height, nil
}

// Write feeds p through the emulator. Sequences and runes split across
// writes are held back until complete.
func (v *Virtual) Write(p []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.writeErr != nil {
		return 0, fmt.Errorf("writing to virtual terminal: %w", v.writeErr)
	}
	v.raw.Write(p)
	data := append(v.pending, p...)
	v.pending = nil

	for len(data) > 0 {
		n, ok := tokenLen(data)
		if !ok {
			v.pending = append(v.pending, data...)
			break
		}
		v.feed(data[:n])
		data = data[n:]
	}
	return len(p), nil
}

// --- Test helpers (not part of any interface) ---

// Output returns every byte written so far.
func (v *Virtual) Output() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.raw.String()
}

// Screen returns the visible rows with trailing blanks trimmed.
func (v *Virtual) Screen() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	rows := make([]string, v.height)
	for y := range rows {
		rows[y] = v.rowText(y)
	}
	return rows
}

// Lines returns the visible rows up to the last non-empty one.
func (v *Virtual) Lines() []string {
	rows := v.Screen()
	end := len(rows)
	for end > 0 && rows[end-1] == "" {
		end--
	}
	return rows[:end]
}

// Scrollback returns the rows that scrolled off the top, oldest first.
func (v *Virtual) Scrollback() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]string, len(v.scrollback))
	copy(out, v.scrollback)
	return out
}

// Cursor returns the cursor column and row.
func (v *Virtual) Cursor() (x, y int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	c := v.vt.Cursor()
	return c.X, c.Y
}

// Foreground returns the colour of the cell at (x, y): "" for the default
// colour, a name such as "yellow" or "bright-red", "256:n" or "#rrggbb".
func (v *Virtual) Foreground(x, y int) string {
	v.mu.Lock()
	defer v.mu.Unlock()

	if y < 0 || y >= v.height || x < 0 || x >= v.width {
		return ""
	}
	return colorName(v.vt.Cell(x, y).FG)
}

// CurrentForeground returns the colour new text would be drawn in.
func (v *Virtual) CurrentForeground() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	return colorName(v.vt.Cursor().Attr.FG)
}

// EnableCount returns how many times Enable was called.
func (v *Virtual) EnableCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.enableCount
}

// RestoreCount returns how many times Restore was called.
func (v *Virtual) RestoreCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.restoreCount
}

// SetSize changes the screen width, keeping the height.
func (v *Virtual) SetSize(width int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.width = width
	v.vt.Resize(width, v.height)
}

func (v *Virtual) rowText(y int) string {
	var b strings.Builder
	for x := range v.width {
		ch := v.vt.Cell(x, y).Char
		if ch == 0 {
			ch = ' '
		}
		b.WriteRune(ch)
	}
	return strings.TrimRight(b.String(), " ")
}

// feed passes one complete token to the emulator, first saving the top row
// when the token is about to scroll it away.
func (v *Virtual) feed(tok []byte) {
	atBottom := v.vt.Cursor().Y == v.height-1

	switch c := tok[0]; {
	case c == '\n' || c == '\v' || c == '\f':
		if atBottom {
			v.capture()
		}
		v.wrapNext = false
		if c == '\n' && v.advance != AdvanceNewline {
			tok = []byte("\r\n")
		}
	case c == '\x1b' && len(tok) == 2:
		switch tok[1] {
		case 'D', 'E':
			if atBottom {
				v.capture()
			}
			v.wrapNext = false
		case '7':
			v.savedWrap = v.wrapNext
		case '8':
			v.wrapNext = v.savedWrap
		default:
			v.wrapNext = false
		}
	case c == '\x1b':
		// SGR leaves a deferred wrap in place; cursor controls clear it.
		if tok[len(tok)-1] != 'm' {
			v.wrapNext = false
		}
	case c < 0x20 || c == 0x7f:
		v.wrapNext = false
	default:
		if v.wrapNext && atBottom {
			v.capture()
		}
		lastCol := v.vt.Cursor().X == v.width-1
		v.wrapNext = !v.wrapNext && lastCol
	}

	_, _ = v.vt.Write(tok)
}

func (v *Virtual) capture() {
	v.scrollback = append(v.scrollback, v.rowText(0))
}

// tokenLen returns the length of the control, escape sequence or rune at
// the start of data. ok is false when data ends before the token does.
func tokenLen(data []byte) (n int, ok bool) {
	c := data[0]
	if c != '\x1b' {
		if c < 0x80 {
			return 1, true
		}
		if !utf8.FullRune(data) {
			return 0, false
		}
		_, size := utf8.DecodeRune(data)
		return size, true
	}

	if len(data) < 2 {
		return 0, false
	}
	switch data[1] {
	case '[':
		for i := 2; i < len(data); i++ {
			if data[i] >= 0x40 && data[i] <= 0x7e {
				return i + 1, true
			}
		}
		return 0, false
	case ']', 'P', '_', '^':
		for i := 2; i < len(data); i++ {
			if data[i] == '\x07' && data[1] == ']' {
				return i + 1, true
			}
			if data[i] == '\x1b' && i+1 < len(data) && data[i+1] == '\\' {
				return i + 2, true
			}
		}
		return 0, false
	case '(', ')':
		if len(data) < 3 {
			return 0, false
		}
		return 3, true
	default:
		return 2, true
	}
}

var colorNames = [8]string{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white"}

// colorName converts an emulator colour to the names used in assertions.
func colorName(c vt10x.Color) string {
	switch {
	case c >= vt10x.DefaultFG:
		return ""
	case c < 8:
		return colorNames[c]
	case c < 16:
		return "bright-" + colorNames[c-8]
	case c < 256:
		return "256:" + strconv.Itoa(int(c))
	default:
		return fmt.Sprintf("#%06x", uint32(c))
	}
}
