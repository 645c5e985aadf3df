// ABOUTME: Raw input mode for forwarding keystrokes to a child on a pseudo-terminal
// ABOUTME: Wraps golang.org/x/term MakeRaw with a restore func that is safe to call twice

package terminal

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// MakeRaw puts the terminal behind f into raw mode and returns the function
// that restores the previous mode.
func MakeRaw(f *os.File) (restore func() error, err error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("entering raw mode: %w", ErrNotConsole)
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("entering raw mode: %w", err)
	}

	var once sync.Once
	return func() error {
		var rerr error
		once.Do(func() {
			if err := term.Restore(fd, state); err != nil {
				rerr = fmt.Errorf("exiting raw mode: %w", err)
			}
		})
		return rerr
	}, nil
}
