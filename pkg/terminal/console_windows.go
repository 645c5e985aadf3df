// ABOUTME: Windows console mode handling via SetConsoleMode from golang.org/x/sys/windows.
// ABOUTME: Enables virtual terminal processing; line feed becomes the advance code.

//go:build windows

package terminal

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func (c *Console) enableVT() (AdvanceCode, error) {
	h := windows.Handle(c.f.Fd())

	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotConsole, err)
	}
	want := mode | windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING | windows.DISABLE_NEWLINE_AUTO_RETURN
	if err := windows.SetConsoleMode(h, want); err != nil {
		return "", fmt.Errorf("setting console mode: %w", err)
	}
	c.oldMode = mode
	c.enabled = true
	return AdvanceNewline, nil
}

func (c *Console) restoreVT() error {
	return windows.SetConsoleMode(windows.Handle(c.f.Fd()), c.oldMode)
}

// startResizeListener is a no-op on Windows; there is no SIGWINCH and the
// status line picks up the new width on the next frame.
func (c *Console) startResizeListener() func() {
	return func() {}
}
