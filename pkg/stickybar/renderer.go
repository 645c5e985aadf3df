// ABOUTME: Overlay renderer: builds the escape sequences for each erase/emit/redraw frame
// ABOUTME: Open-loop protocol using index, cursor up and save/restore; never reads the terminal back

package stickybar

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/mauromedda/stickybar/internal/log"
	"github.com/mauromedda/stickybar/pkg/terminal"
	"github.com/mauromedda/stickybar/pkg/theme"
	"github.com/mauromedda/stickybar/pkg/width"
)

const (
	eraseLine      = "\x1b[2K"
	eraseToEOL     = "\x1b[K"
	eraseBelow     = "\x1b[J"
	cursorUpOne    = "\x1b[A"
	saveCursor     = "\x1b7"
	restoreCursor  = "\x1b8"
	carriageReturn = "\r"
)

// counters are shared between the writer goroutine and Session.Stats.
type counters struct {
	frames   atomic.Int64
	failures atomic.Int64
	bytes    atomic.Int64
}

// renderer holds the overlay state machine. It is owned by a single
// goroutine and performs no I/O: every method returns the bytes of one frame.
type renderer struct {
	advance  string
	palette  theme.Palette
	produce  Producer
	sizer    terminal.Sizer
	maxRows  int
	throttle time.Duration
	now      func() time.Time
	crlf     bool
	stats    *counters

	rows      int  // rows occupied by the live status, 0 before the first frame
	lineStart bool // program output so far ends at the start of a line
	lastCR    bool // previous chunk ended with a carriage return
	closed    bool

	cachedText   string
	cachedFailed bool
	cachedAt     time.Time
	hasCache     bool

	buf []byte
}

// initial draws the first status line before any output arrives.
func (r *renderer) initial() []byte {
	r.buf = r.buf[:0]
	r.lineStart = true
	r.open(r.status(true))
	return r.buf
}

// frame erases the live status, emits chunk verbatim and draws a fresh
// status below it. An empty chunk only redraws.
func (r *renderer) frame(chunk []byte) []byte {
	if r.closed {
		return nil
	}
	r.buf = r.buf[:0]
	r.erase()
	r.emit(chunk)
	r.open(r.status(true))
	return r.buf
}

// shutdown commits the final status into the scrollback and leaves the
// cursor at the start of a clean line below it. Only the first call
// produces output.
func (r *renderer) shutdown() []byte {
	if r.closed {
		return nil
	}
	r.closed = true
	r.buf = r.buf[:0]

	lines, color := r.status(false)
	if !r.lineStart {
		// Keep the partial output line; the final status goes on the status row.
		r.buf = append(r.buf, r.advance...)
	}
	for i, line := range lines {
		if i > 0 {
			r.buf = append(r.buf, r.advance...)
		}
		r.buf = append(r.buf, carriageReturn+eraseToEOL...)
		r.buf = append(r.buf, color.Code()...)
		r.buf = append(r.buf, line...)
	}
	r.buf = append(r.buf, theme.Reset...)
	r.buf = append(r.buf, r.advance...)
	r.buf = append(r.buf, carriageReturn...)
	if r.maxRows > 1 {
		r.buf = append(r.buf, eraseBelow...)
	} else {
		r.buf = append(r.buf, eraseToEOL...)
	}
	r.rows = 0
	r.stats.frames.Add(1)
	return r.buf
}

// erase clears the rows of the live status and returns to the output line.
func (r *renderer) erase() {
	for range r.rows {
		r.buf = append(r.buf, r.advance...)
		r.buf = append(r.buf, eraseLine...)
	}
	r.up(r.rows)
}

// open reserves rows below the output, saves the cursor there and draws the
// status, then restores the cursor to the end of the output.
func (r *renderer) open(lines []string, color theme.Color) {
	for range lines {
		r.buf = append(r.buf, r.advance...)
	}
	r.up(len(lines))
	r.buf = append(r.buf, saveCursor...)
	for _, line := range lines {
		r.buf = append(r.buf, r.advance...)
		r.buf = append(r.buf, carriageReturn...)
		r.buf = append(r.buf, color.Code()...)
		r.buf = append(r.buf, line...)
	}
	r.buf = append(r.buf, theme.Reset+restoreCursor...)
	r.rows = len(lines)
	r.stats.frames.Add(1)
}

func (r *renderer) up(n int) {
	switch {
	case n <= 0:
	case n == 1:
		r.buf = append(r.buf, cursorUpOne...)
	default:
		r.buf = append(r.buf, "\x1b["...)
		r.buf = strconv.AppendInt(r.buf, int64(n), 10)
		r.buf = append(r.buf, 'A')
	}
}

// emit copies program output, turning bare line feeds into CRLF when the
// console does not return the carriage on its own.
func (r *renderer) emit(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	r.stats.bytes.Add(int64(len(chunk)))

	if !r.crlf {
		r.buf = append(r.buf, chunk...)
	} else {
		for i, c := range chunk {
			if c == '\n' {
				prevCR := r.lastCR
				if i > 0 {
					prevCR = chunk[i-1] == '\r'
				}
				if !prevCR {
					r.buf = append(r.buf, '\r')
				}
			}
			r.buf = append(r.buf, c)
		}
	}

	last := chunk[len(chunk)-1]
	r.lastCR = last == '\r'
	r.lineStart = last == '\n' || last == '\r'
}

// status obtains the frame's text and fits it to the terminal. Failed
// producers yield a diagnostic in the error colour.
func (r *renderer) status(running bool) ([]string, theme.Color) {
	text, failed := r.text(running)
	color := r.palette.Status
	if failed {
		color = r.palette.Error
	}
	return width.Fit(text, r.columns(), r.maxRows), color
}

func (r *renderer) text(running bool) (string, bool) {
	if running && r.throttle > 0 && r.hasCache && r.now().Sub(r.cachedAt) < r.throttle {
		return r.cachedText, r.cachedFailed
	}

	text, err := r.produce.call(running)
	failed := err != nil
	if failed {
		r.stats.failures.Add(1)
		log.Debug("status producer failed: %v", err)
		text = failureText(err)
	}

	r.cachedText, r.cachedFailed = text, failed
	r.cachedAt = r.now()
	r.hasCache = true
	return text, failed
}

// columns returns the usable width, or 0 when it is unknown.
func (r *renderer) columns() int {
	if r.sizer == nil {
		return 0
	}
	w, _, err := r.sizer.Size()
	if err != nil {
		return 0
	}
	return w
}
