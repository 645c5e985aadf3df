// ABOUTME: Shared test helpers: screen and cursor assertions over terminal.Virtual
// ABOUTME: waitScreen polls because the writer pump renders asynchronously

package stickybar

import (
	"reflect"
	"testing"
	"time"

	"github.com/mauromedda/stickybar/pkg/terminal"
	"github.com/mauromedda/stickybar/pkg/theme"
)

const waitTimeout = 2 * time.Second

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// waitScreen waits until the visible lines equal want.
func waitScreen(t *testing.T, v *terminal.Virtual, want ...string) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for {
		got := v.Lines()
		if reflect.DeepEqual(got, want) || (len(got) == 0 && len(want) == 0) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("screen = %q, want %q", got, want)
		}
		time.Sleep(time.Millisecond)
	}
}

// assertScreen checks the visible lines and that only the last line is
// drawn in color.
func assertScreen(t *testing.T, v *terminal.Virtual, color string, want ...string) {
	t.Helper()
	if got := v.Lines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("screen = %q, want %q", got, want)
	}
	for y, line := range want {
		for x := range len(line) {
			wantFg := ""
			if y == len(want)-1 {
				wantFg = color
			}
			if got := v.Foreground(x, y); got != wantFg {
				t.Errorf("foreground at (%d, %d) = %q, want %q", x, y, got, wantFg)
				return
			}
		}
	}
}

func assertCursor(t *testing.T, v *terminal.Virtual, x, y int) {
	t.Helper()
	if gx, gy := v.Cursor(); gx != x || gy != y {
		t.Errorf("cursor = (%d, %d), want (%d, %d)", gx, gy, x, y)
	}
}

// newTestRenderer returns a single-row renderer using ESC D.
func newTestRenderer(p Producer) *renderer {
	return &renderer{
		advance: string(terminal.AdvanceIndex),
		palette: theme.DefaultPalette(),
		produce: p,
		maxRows: 1,
		now:     time.Now,
		stats:   &counters{},
	}
}
