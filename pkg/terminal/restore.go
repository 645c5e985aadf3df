// ABOUTME: RecoverGoroutine turns a panic in a rendering goroutine into an error.
// ABOUTME: Resets colour and cursor visibility first so the terminal stays usable.

package terminal

import (
	"fmt"
	"io"
	"runtime/debug"
)

// ResetSequence returns the terminal to default colours and shows the cursor.
const ResetSequence = "\x1b[0m\x1b[?25h"

// RecoverGoroutine should be deferred at the top of goroutines that own
// the output device. On panic it writes ResetSequence to w (best effort) and
// stores the panic value and stack in *errp. It does not exit, so the
// owner of the goroutine can finish its shutdown.
func RecoverGoroutine(w io.Writer, errp *error) {
	r := recover()
	if r == nil {
		return
	}

	_, _ = io.WriteString(w, ResetSequence)

	if errp != nil {
		*errp = fmt.Errorf("goroutine panic: %v\n\n%s", r, debug.Stack())
	}
}
