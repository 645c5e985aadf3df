// ABOUTME: Functional options for sessions: negotiator, sizing, colours, refresh and buffering
// ABOUTME: Defaults are derived from the output writer (console files get a Console negotiator)

package stickybar

import (
	"io"
	"os"
	"time"

	"github.com/mauromedda/stickybar/pkg/terminal"
	"github.com/mauromedda/stickybar/pkg/theme"
)

const defaultBuffer = 64

// Option configures a session.
type Option func(*options)

type options struct {
	negotiator terminal.Negotiator
	sizer      terminal.Sizer
	maxRows    int
	palette    theme.Palette
	interval   time.Duration
	throttle   time.Duration
	buffer     int
	resize     bool
	now        func() time.Time
}

// WithNegotiator overrides the terminal mode negotiator.
func WithNegotiator(n terminal.Negotiator) Option {
	return func(o *options) { o.negotiator = n }
}

// WithSizer sets the source of the terminal width used to fit the status.
func WithSizer(s terminal.Sizer) Option {
	return func(o *options) { o.sizer = s }
}

// WithMaxRows lets a long status wrap onto up to n rows. The default is a
// single row, truncated with an ellipsis.
func WithMaxRows(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRows = n
		}
	}
}

// WithPalette sets the status and error colours. Zero colours keep their
// defaults.
func WithPalette(p theme.Palette) Option {
	return func(o *options) { o.palette = p.Merge(theme.DefaultPalette()) }
}

// WithInterval redraws the status line every d even when no output
// arrives. Zero disables periodic refresh.
func WithInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithThrottle reuses the previous status text for frames that come less
// than d after the last producer call. Output is never delayed; only the
// producer call is skipped. The final frame always calls the producer.
func WithThrottle(d time.Duration) Option {
	return func(o *options) { o.throttle = d }
}

// WithBuffer sets how many pending chunks may queue before Write blocks.
func WithBuffer(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.buffer = n
		}
	}
}

// WithResizeRefresh redraws the status line when the console is resized.
// It only has an effect for *os.File outputs on platforms with SIGWINCH.
func WithResizeRefresh() Option {
	return func(o *options) { o.resize = true }
}

func withClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// buildOptions applies opts over defaults derived from w.
func buildOptions(w io.Writer, opts []Option) *options {
	o := &options{
		maxRows: 1,
		palette: theme.DefaultPalette(),
		buffer:  defaultBuffer,
		now:     time.Now,
	}

	switch dev := w.(type) {
	case *os.File:
		c := terminal.NewConsole(dev)
		o.negotiator, o.sizer = c, c
	default:
		if n, ok := w.(terminal.Negotiator); ok {
			o.negotiator = n
		}
		if s, ok := w.(terminal.Sizer); ok {
			o.sizer = s
		}
	}
	if o.negotiator == nil {
		o.negotiator = terminal.ANSI{}
	}

	for _, opt := range opts {
		opt(o)
	}
	return o
}
