// ABOUTME: Defines the Negotiator and Sizer contracts plus the AdvanceCode control sequences.
// ABOUTME: Abstracts console-mode setup so the overlay renderer never branches on platform.

package terminal

import "errors"

// AdvanceCode moves the cursor down one row, scrolling the viewport when the
// cursor already sits on the bottom row.
type AdvanceCode string

const (
	// AdvanceIndex is ESC D (IND), used by ANSI terminals.
	AdvanceIndex AdvanceCode = "\x1bD"
	// AdvanceNewline is a bare line feed, used by consoles running with
	// DISABLE_NEWLINE_AUTO_RETURN.
	AdvanceNewline AdvanceCode = "\n"
)

// ErrNotConsole is returned when a file handle is not attached to a console.
var ErrNotConsole = errors.New("not a console")

// Negotiator prepares an output device for escape-sequence rendering.
// Restore must be safe to call after a failed Enable and more than once.
type Negotiator interface {
	Enable() (AdvanceCode, error)
	Restore() error
}

// Sizer reports the current device dimensions in cells.
type Sizer interface {
	Size() (width, height int, err error)
}

// ANSI is a Negotiator for writers that already understand ANSI sequences
// and have no mode to switch, such as pipes and test buffers.
type ANSI struct {
	Advance AdvanceCode
}

// Enable returns the configured advance code, defaulting to AdvanceIndex.
func (a ANSI) Enable() (AdvanceCode, error) {
	if a.Advance == "" {
		return AdvanceIndex, nil
	}
	return a.Advance, nil
}

// Restore is a no-op.
func (a ANSI) Restore() error {
	return nil
}
