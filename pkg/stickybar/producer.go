// ABOUTME: Producer is the status text callback; failures and panics become error frames
// ABOUTME: Text adapts infallible callbacks

package stickybar

import "fmt"

// Producer returns the status text for one frame. running is false only for
// the final frame. It is always called from the session's writer goroutine,
// never concurrently with itself.
type Producer func(running bool) (string, error)

// Text adapts a producer that cannot fail.
func Text(fn func(running bool) string) Producer {
	return func(running bool) (string, error) {
		return fn(running), nil
	}
}

// Static returns a producer that always reports s.
func Static(s string) Producer {
	return func(bool) (string, error) {
		return s, nil
	}
}

// call invokes p, converting a panic into an error.
func (p Producer) call(running bool) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p(running)
}

// failureText is the status shown in place of a failed producer's text.
func failureText(err error) string {
	return "callback failed: " + err.Error()
}
