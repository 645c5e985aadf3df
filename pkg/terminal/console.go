// ABOUTME: Console implements Negotiator and Sizer for an *os.File using golang.org/x/term.
// ABOUTME: Platform-specific mode switching and resize handling live in console_unix/windows.

package terminal

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// Console is a real output device backed by a file descriptor, usually the
// process's original standard output.
type Console struct {
	f *os.File

	mu       sync.Mutex
	enabled  bool
	advance  AdvanceCode
	oldMode  uint32
	resizeFn func(width, height int)
}

// NewConsole returns a Console writing to f.
func NewConsole(f *os.File) *Console {
	return &Console{f: f}
}

// Enable switches the console into escape-sequence mode and returns the
// advance code valid for it. Enabling an enabled console keeps the mode
// saved by the first call.
func (c *Console) Enable() (AdvanceCode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enabled {
		return c.advance, nil
	}
	code, err := c.enableVT()
	if err != nil {
		return "", fmt.Errorf("enabling terminal mode: %w", err)
	}
	c.advance = code
	return code, nil
}

// Restore puts back the mode saved by Enable. It is a no-op when Enable
// never succeeded.
func (c *Console) Restore() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return nil
	}
	if err := c.restoreVT(); err != nil {
		return fmt.Errorf("restoring terminal mode: %w", err)
	}
	c.enabled = false
	return nil
}

// Size returns the current console dimensions.
func (c *Console) Size() (width, height int, err error) {
	w, h, err := term.GetSize(int(c.f.Fd()))
	if err != nil {
		return 0, 0, fmt.Errorf("getting terminal size: %w", err)
	}
	return w, h, nil
}

// OnResize registers fn to run whenever the console is resized and returns
// a function that stops listening.
func (c *Console) OnResize(fn func(width, height int)) (stop func()) {
	c.mu.Lock()
	c.resizeFn = fn
	c.mu.Unlock()

	return c.startResizeListener()
}

// CanUpdateStatus reports whether f is a terminal able to show a status
// line: output is not redirected and TERM is not "dumb".
func CanUpdateStatus(f *os.File) bool {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}
