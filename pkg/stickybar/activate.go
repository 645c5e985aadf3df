// ABOUTME: Ambient scope: Activate swaps os.Stdout for a pipe that feeds a Session
// ABOUTME: Close restores os.Stdout first, drains the pipe, then writes the final status

package stickybar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// ErrActive is returned by Activate while another ambient session runs.
var ErrActive = errors.New("stickybar: already active")

var (
	activeMu sync.Mutex
	active   *Ambient
)

// Ambient is a session bound to the process's standard output. While it is
// active, everything written to os.Stdout (fmt.Println and friends) is
// rendered above the status line.
type Ambient struct {
	session *Session
	orig    *os.File
	pr, pw  *os.File
	copied  chan error

	once sync.Once
	err  error
}

// Activate opens a session on the current os.Stdout and replaces os.Stdout
// with the write end of a pipe feeding it. Only one ambient session may be
// active at a time.
func Activate(producer Producer, opts ...Option) (*Ambient, error) {
	return ActivateOn(nil, producer, opts...)
}

// ActivateOn is like Activate but draws on w instead of the original
// os.Stdout. A nil w means the original os.Stdout.
func ActivateOn(w io.Writer, producer Producer, opts ...Option) (*Ambient, error) {
	activeMu.Lock()
	defer activeMu.Unlock()

	if active != nil {
		return nil, ErrActive
	}

	orig := os.Stdout
	if w == nil {
		w = orig
	}
	s, err := Open(w, producer, opts...)
	if err != nil {
		return nil, err
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}

	a := &Ambient{
		session: s,
		orig:    orig,
		pr:      pr,
		pw:      pw,
		copied:  make(chan error, 1),
	}
	go a.forward()

	os.Stdout = pw
	active = a
	return a, nil
}

// forward copies the pipe into the session. If the session stops accepting
// output the pipe is still drained so writers to os.Stdout never block.
func (a *Ambient) forward() {
	_, err := io.Copy(a.session, a.pr)
	if err != nil {
		_, _ = io.Copy(io.Discard, a.pr)
	}
	a.copied <- err
}

// Session returns the underlying session.
func (a *Ambient) Session() *Session {
	return a.session
}

// Stdout returns the handle currently installed as os.Stdout.
func (a *Ambient) Stdout() *os.File {
	return a.pw
}

// Refresh asks for a redraw of the status line.
func (a *Ambient) Refresh() {
	a.session.Refresh()
}

// Close restores os.Stdout, waits until everything written to the pipe
// has been rendered and closes the session. It is safe to call more than
// once.
func (a *Ambient) Close() error {
	a.once.Do(func() {
		activeMu.Lock()
		if os.Stdout == a.pw {
			os.Stdout = a.orig
		}
		active = nil
		activeMu.Unlock()

		var errs []error
		if err := a.pw.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing stdout pipe: %w", err))
		}
		if err := <-a.copied; err != nil {
			errs = append(errs, fmt.Errorf("forwarding stdout: %w", err))
		}
		_ = a.pr.Close()
		if err := a.session.Close(); err != nil {
			errs = append(errs, err)
		}
		a.err = errors.Join(errs...)
	})
	return a.err
}

// WithActive runs fn with os.Stdout routed through a status line session
// and always restores it, re-raising any panic from fn afterwards.
func WithActive(producer Producer, fn func() error, opts ...Option) error {
	a, err := Activate(producer, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = a.Close()
			panic(r)
		}
	}()

	ferr := fn()
	return errors.Join(ferr, a.Close())
}
