// ABOUTME: Status line colours: Color wraps a raw SGR code; Palette maps status roles to colours
// ABOUTME: Defaults match the classic yellow status and red failure rendering

package theme

// Reset returns all attributes to the terminal default.
const Reset = "\x1b[0m"

// Color represents a terminal colour as the SGR sequence that selects it.
type Color struct {
	code string
}

// NewColor creates a Color from a raw ANSI escape code.
func NewColor(code string) Color {
	return Color{code: code}
}

// Code returns the raw ANSI escape code.
func (c Color) Code() string {
	return c.code
}

// IsZero reports whether c selects nothing.
func (c Color) IsZero() bool {
	return c.code == ""
}

// Palette holds the colours of the status line.
type Palette struct {
	// Status is used for ordinary status text.
	Status Color
	// Error is used when the status producer fails.
	Error Color
}

// DefaultPalette returns yellow status text and red failures.
func DefaultPalette() Palette {
	return Palette{
		Status: NewColor("\x1b[0;33m"),
		Error:  NewColor("\x1b[0;31m"),
	}
}

// Merge returns p with zero colours taken from base.
func (p Palette) Merge(base Palette) Palette {
	if p.Status.IsZero() {
		p.Status = base.Status
	}
	if p.Error.IsZero() {
		p.Error = base.Error
	}
	return p
}
