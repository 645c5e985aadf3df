// ABOUTME: Session is the explicit-handle scope: Open starts the writer pump, Close drains it
// ABOUTME: Writes are copied into a bounded channel; Close blocks until the final frame is written

package stickybar

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/mauromedda/stickybar/pkg/terminal"
)

var (
	// ErrClosed is returned by writes to a closed session.
	ErrClosed = errors.New("stickybar: session closed")
	// ErrNegotiation wraps terminal mode negotiation failures from Open.
	ErrNegotiation = errors.New("stickybar: terminal negotiation failed")
)

// Stats summarizes a session.
type Stats struct {
	Frames   int64 // frames rendered, including the initial and final ones
	Failures int64 // producer calls that failed or panicked
	Bytes    int64 // program output bytes rendered
}

// Session is an open status line overlay. It implements io.Writer; all
// output written to it appears above the status line.
type Session struct {
	neg        terminal.Negotiator
	pump       *pump
	stats      *counters
	chunks     chan []byte
	refresh    chan struct{}
	stopResize func()

	mu     sync.RWMutex
	closed bool

	closeOnce sync.Once
	closeErr  error
}

type resizeNotifier interface {
	OnResize(fn func(width, height int)) (stop func())
}

// Open starts a status line session drawing on w. If w is an *os.File it
// is negotiated as a console; other writers are assumed to understand ANSI
// sequences. The caller must Close the session to write the final status.
func Open(w io.Writer, producer Producer, opts ...Option) (*Session, error) {
	if producer == nil {
		return nil, errors.New("stickybar: nil producer")
	}
	o := buildOptions(w, opts)

	advance, err := o.negotiator.Enable()
	if err != nil {
		_ = o.negotiator.Restore()
		return nil, fmt.Errorf("%w: %w", ErrNegotiation, err)
	}

	stats := &counters{}
	s := &Session{
		neg:     o.negotiator,
		stats:   stats,
		chunks:  make(chan []byte, o.buffer),
		refresh: make(chan struct{}, 1),
	}
	s.pump = &pump{
		out: w,
		r: &renderer{
			advance:  string(advance),
			palette:  o.palette,
			produce:  producer,
			sizer:    o.sizer,
			maxRows:  o.maxRows,
			throttle: o.throttle,
			now:      o.now,
			crlf:     advance == terminal.AdvanceNewline,
			stats:    stats,
		},
		chunks:   s.chunks,
		refresh:  s.refresh,
		interval: o.interval,
		done:     make(chan struct{}),
	}
	go s.pump.run()

	if rn, ok := o.sizer.(resizeNotifier); ok && o.resize {
		s.stopResize = rn.OnResize(func(int, int) { s.Refresh() })
	}
	return s, nil
}

// Write queues p for rendering above the status line. It blocks while the
// queue is full and fails once the session is closed or its output broke.
func (s *Session) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrClosed
	}
	select {
	case <-s.pump.done:
		return 0, s.pumpErr()
	default:
	}
	select {
	case s.chunks <- bytes.Clone(p):
		return len(p), nil
	case <-s.pump.done:
		return 0, s.pumpErr()
	}
}

// WriteString is like Write for strings.
func (s *Session) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// Refresh asks for a redraw of the status line without new output.
// Requests made while one is pending are coalesced.
func (s *Session) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	return Stats{
		Frames:   s.stats.frames.Load(),
		Failures: s.stats.failures.Load(),
		Bytes:    s.stats.bytes.Load(),
	}
}

// Close stops accepting output, waits for the final status frame and
// restores the terminal mode. It is safe to call more than once; later
// calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.chunks)
		s.mu.Unlock()

		<-s.pump.done
		if s.stopResize != nil {
			s.stopResize()
		}

		var errs []error
		if s.pump.err != nil {
			errs = append(errs, fmt.Errorf("rendering status line: %w", s.pump.err))
		}
		if err := s.neg.Restore(); err != nil {
			errs = append(errs, err)
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func (s *Session) pumpErr() error {
	if s.pump.err != nil {
		return fmt.Errorf("status line output stopped: %w", s.pump.err)
	}
	return ErrClosed
}

// With opens a session on w, runs fn with it and closes the session when
// fn returns or panics. A panic is re-raised after the final frame.
func With(w io.Writer, producer Producer, fn func(*Session) error, opts ...Option) (err error) {
	s, err := Open(w, producer, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = s.Close()
			panic(r)
		}
	}()

	ferr := fn(s)
	return errors.Join(ferr, s.Close())
}
