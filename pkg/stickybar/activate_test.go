// ABOUTME: Tests for the ambient scope that routes os.Stdout through a session
// ABOUTME: Not parallel: every test swaps the process-wide os.Stdout

package stickybar

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/mauromedda/stickybar/pkg/terminal"
)

func TestActivate_RoutesStdout(t *testing.T) {
	v := terminal.NewVirtual(20, 6)
	orig := os.Stdout

	a, err := ActivateOn(v, Static("my bar"))
	if err != nil {
		t.Fatalf("ActivateOn: %v", err)
	}
	if os.Stdout != a.Stdout() {
		t.Fatal("os.Stdout not replaced")
	}

	fmt.Println("first line")
	waitScreen(t, v, "first line", "", "my bar")
	fmt.Print("second line")

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if os.Stdout != orig {
		t.Error("os.Stdout not restored")
	}
	assertScreen(t, v, "yellow", "first line", "second line", "my bar")
	if err := a.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestActivate_Exclusive(t *testing.T) {
	v := terminal.NewVirtual(20, 6)

	a, err := ActivateOn(v, Static("one"))
	if err != nil {
		t.Fatalf("ActivateOn: %v", err)
	}
	if _, err := ActivateOn(v, Static("two")); !errors.Is(err, ErrActive) {
		t.Errorf("second ActivateOn = %v, want ErrActive", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err := ActivateOn(v, Static("three"))
	if err != nil {
		t.Fatalf("ActivateOn after Close: %v", err)
	}
	_ = b.Close()
}

func TestActivate_NegotiationFailureKeepsStdout(t *testing.T) {
	v := terminal.NewVirtual(20, 6)
	v.SetEnableError(errors.New("no console"))
	orig := os.Stdout

	if _, err := ActivateOn(v, Static("bar")); !errors.Is(err, ErrNegotiation) {
		t.Fatalf("ActivateOn = %v, want ErrNegotiation", err)
	}
	if os.Stdout != orig {
		t.Error("os.Stdout changed after failed activation")
	}

	// A failed activation leaves no session behind.
	v2 := terminal.NewVirtual(20, 6)
	a, err := ActivateOn(v2, Static("bar"))
	if err != nil {
		t.Fatalf("ActivateOn: %v", err)
	}
	_ = a.Close()
}

func TestActivate_Refresh(t *testing.T) {
	v := terminal.NewVirtual(20, 6)

	calls := 0
	a, err := ActivateOn(v, Text(func(bool) string {
		calls++
		return fmt.Sprintf("n=%d", calls)
	}))
	if err != nil {
		t.Fatalf("ActivateOn: %v", err)
	}
	waitScreen(t, v, "", "n=1")
	a.Refresh()
	waitScreen(t, v, "", "n=2")

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := a.Session().Stats().Frames; got != 3 {
		t.Errorf("frames = %d, want 3", got)
	}
}

func TestWithActive_RestoresOnPanic(t *testing.T) {
	orig := os.Stdout

	func() {
		defer func() {
			if r := recover(); r != "kaboom" {
				t.Errorf("recovered %v, want kaboom", r)
			}
		}()
		_ = WithActive(Static("bar"), func() error { panic("kaboom") },
			WithNegotiator(terminal.ANSI{}))
	}()

	if os.Stdout != orig {
		t.Error("os.Stdout not restored after panic")
	}
	activeMu.Lock()
	defer activeMu.Unlock()
	if active != nil {
		t.Error("ambient session still registered")
	}
}
