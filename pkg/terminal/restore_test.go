// ABOUTME: Tests for RecoverGoroutine panic handling.
// ABOUTME: Verifies the reset sequence is written and the panic becomes an error.

package terminal

import (
	"strings"
	"testing"
)

func TestRecoverGoroutine_Panic(t *testing.T) {
	t.Parallel()
	v := NewVirtual(20, 6)

	var err error
	func() {
		defer RecoverGoroutine(v, &err)
		_, _ = v.Write([]byte("\x1b[0;33m"))
		panic("kaboom")
	}()

	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("err = %v, want panic value", err)
	}
	if !strings.HasSuffix(v.Output(), ResetSequence) {
		t.Errorf("Output() = %q, want reset suffix", v.Output())
	}
	if v.CurrentForeground() != "" {
		t.Errorf("foreground = %q after reset", v.CurrentForeground())
	}
}

func TestRecoverGoroutine_NoPanic(t *testing.T) {
	t.Parallel()
	v := NewVirtual(20, 6)

	var err error
	func() {
		defer RecoverGoroutine(v, &err)
	}()

	if err != nil {
		t.Errorf("err = %v, want nil", err)
	}
	if v.Output() != "" {
		t.Errorf("Output() = %q, want empty", v.Output())
	}
}
