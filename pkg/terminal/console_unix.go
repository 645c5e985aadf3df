// ABOUTME: Unix console mode handling: ANSI is always on, so Enable only selects ESC D.
// ABOUTME: Spawns a goroutine that listens for SIGWINCH and invokes the resize callback.

//go:build unix

package terminal

import (
	"os"
	"os/signal"
	"syscall"
)

func (c *Console) enableVT() (AdvanceCode, error) {
	c.enabled = true
	return AdvanceIndex, nil
}

func (c *Console) restoreVT() error {
	return nil
}

// startResizeListener sets up a SIGWINCH handler that calls the
// resize callback with the new console dimensions.
func (c *Console) startResizeListener() func() {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGWINCH)

	go func() {
		for {
			select {
			case <-done:
				return
			case <-sigCh:
			}

			c.mu.Lock()
			fn := c.resizeFn
			c.mu.Unlock()

			if fn == nil {
				continue
			}

			w, h, err := c.Size()
			if err != nil {
				continue
			}
			fn(w, h)
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
