// ABOUTME: Runs the wrapped command on a PTY or pipes and streams its output to a writer
// ABOUTME: Tracks elapsed time, line and byte counts for the status line

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/mauromedda/stickybar/internal/log"
)

const (
	readBufferSize = 32 * 1024

	// DefaultKillDelay is how long a cancelled child has between SIGTERM
	// and SIGKILL.
	DefaultKillDelay = 5 * time.Second
)

var newline = []byte{'\n'}

// Config describes the command to run.
type Config struct {
	Name     string
	Args     []string
	Dir      string
	Env      []string  // added to the current environment
	PTY      bool      // run on a pseudo-terminal so the child keeps colours and line buffering
	Cols     int       // PTY width; 0 leaves the default
	Rows     int       // PTY height; 0 leaves the default
	Encoding string    // output encoding name (WHATWG label); empty means UTF-8
	Stdin    io.Reader // the child's input; nil means none
	// Interactive copies Stdin into the PTY as keystrokes, for a terminal
	// the caller has put in raw mode. Otherwise the child reads Stdin
	// directly and sees its EOF.
	Interactive bool
	KillDelay   time.Duration // SIGTERM to SIGKILL grace on cancel; 0 means DefaultKillDelay
}

// Snapshot is the run state at one instant.
type Snapshot struct {
	Command  string
	Running  bool
	Elapsed  time.Duration
	Lines    int64
	Bytes    int64
	ExitCode *int
}

// Runner runs one command. It is not reusable.
type Runner struct {
	cfg     Config
	decoder *encoding.Decoder
	now     func() time.Time

	startedAt time.Time
	endedAt   time.Time
	started   atomic.Bool
	finished  atomic.Bool
	lines     atomic.Int64
	bytes     atomic.Int64
	exitCode  atomic.Int64

	mu   sync.Mutex
	ptmx *os.File
	proc *os.Process
}

// New validates cfg and returns a Runner for it.
func New(cfg Config) (*Runner, error) {
	if cfg.Name == "" {
		return nil, errors.New("no command given")
	}
	dec, err := Decoder(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, decoder: dec, now: time.Now}, nil
}

// Command returns the command line as typed.
func (r *Runner) Command() string {
	return strings.Join(append([]string{r.cfg.Name}, r.cfg.Args...), " ")
}

// Snapshot returns the current run state.
func (r *Runner) Snapshot() Snapshot {
	s := Snapshot{
		Command: r.Command(),
		Lines:   r.lines.Load(),
		Bytes:   r.bytes.Load(),
	}
	if !r.started.Load() {
		return s
	}

	r.mu.Lock()
	start, end := r.startedAt, r.endedAt
	r.mu.Unlock()
	if start.IsZero() {
		return s
	}

	if r.finished.Load() {
		code := int(r.exitCode.Load())
		s.ExitCode = &code
		s.Elapsed = end.Sub(start)
	} else {
		s.Running = true
		s.Elapsed = r.now().Sub(start)
	}
	return s
}

// Resize changes the PTY window size. It is a no-op in pipe mode.
func (r *Runner) Resize(cols, rows int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ptmx == nil || cols <= 0 || rows <= 0 {
		return nil
	}
	if err := pty.Setsize(r.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}); err != nil {
		return fmt.Errorf("resizing pty: %w", err)
	}
	return nil
}

// Signal delivers sig to the running child. It does nothing before the
// child starts or after it exits.
func (r *Runner) Signal(sig os.Signal) error {
	r.mu.Lock()
	proc := r.proc
	r.mu.Unlock()
	if proc == nil {
		return nil
	}
	if err := proc.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("signalling %s: %w", r.cfg.Name, err)
	}
	return nil
}

// Run starts the command, copies its decoded output to out until the child
// exits and returns its exit code. A non-zero exit is not an error; err is
// set only when the command cannot be run or its output cannot be copied.
func (r *Runner) Run(ctx context.Context, out io.Writer) (int, error) {
	if !r.started.CompareAndSwap(false, true) {
		return -1, errors.New("runner already used")
	}

	cmd := exec.CommandContext(ctx, r.cfg.Name, r.cfg.Args...)
	cmd.Dir = r.cfg.Dir
	if len(r.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), r.cfg.Env...)
	}
	// Cancellation asks the child to stop before killing it.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.cfg.KillDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultKillDelay
	}

	src, onPTY, err := r.start(cmd)
	if err != nil {
		r.finish(127)
		return 127, err
	}
	defer src.Close()

	r.mu.Lock()
	r.proc = cmd.Process
	r.mu.Unlock()

	g := new(errgroup.Group)
	g.Go(func() error {
		return r.copyOutput(out, src)
	})
	if onPTY && r.cfg.Interactive && r.cfg.Stdin != nil {
		go r.forwardInput(src)
	}

	copyErr := g.Wait()
	waitErr := cmd.Wait()

	code := exitCode(cmd, waitErr)
	r.finish(code)
	log.Debug("command %q exited with %d after %s", r.Command(), code, r.Snapshot().Elapsed)

	if waitErr != nil && code < 0 {
		return code, fmt.Errorf("waiting for command: %w", waitErr)
	}
	if copyErr != nil {
		return code, copyErr
	}
	return code, nil
}

// start launches cmd and returns the file carrying its combined output
// and whether it is a PTY master, which also accepts input.
func (r *Runner) start(cmd *exec.Cmd) (*os.File, bool, error) {
	r.mu.Lock()
	r.startedAt = r.now()
	r.mu.Unlock()

	if r.cfg.PTY {
		ptmx, err := r.startPTY(cmd)
		if err == nil {
			return ptmx, true, nil
		}
		if !errors.Is(err, pty.ErrUnsupported) {
			return nil, false, fmt.Errorf("starting %s on a pty: %w", r.cfg.Name, err)
		}
		log.Warn("pty unsupported, falling back to pipes: %v", err)
	}
	src, err := r.startPipe(cmd)
	return src, false, err
}

func (r *Runner) startPTY(cmd *exec.Cmd) (*os.File, error) {
	var size *pty.Winsize
	if r.cfg.Cols > 0 && r.cfg.Rows > 0 {
		size = &pty.Winsize{Cols: uint16(r.cfg.Cols), Rows: uint16(r.cfg.Rows)}
	}
	if r.cfg.Stdin != nil && !r.cfg.Interactive {
		// pty only fills in nil handles, so the child keeps this input.
		cmd.Stdin = r.cfg.Stdin
		setStdoutCtty(cmd)
	}
	ptmx, err := pty.StartWithSize(cmd, size)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.ptmx = ptmx
	r.mu.Unlock()
	return ptmx, nil
}

func (r *Runner) startPipe(cmd *exec.Cmd) (*os.File, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw
	cmd.Stdin = r.cfg.Stdin

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, fmt.Errorf("starting %s: %w", r.cfg.Name, err)
	}
	// The child holds its own copy; closing ours lets the reader see EOF.
	_ = pw.Close()
	return pr, nil
}

// forwardInput copies keystrokes from an interactive Stdin to the PTY.
func (r *Runner) forwardInput(dst io.Writer) {
	if _, err := io.Copy(dst, r.cfg.Stdin); err != nil {
		log.Debug("forwarding input: %v", err)
	}
}

func (r *Runner) copyOutput(out io.Writer, src io.Reader) error {
	if r.decoder != nil {
		src = transform.NewReader(src, r.decoder)
	}
	buf := make([]byte, readBufferSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			r.bytes.Add(int64(n))
			r.lines.Add(int64(countLines(chunk)))
			if _, werr := out.Write(chunk); werr != nil {
				return fmt.Errorf("writing output: %w", werr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || isPTYClosed(err) {
				return nil
			}
			return fmt.Errorf("reading output: %w", err)
		}
	}
}

func (r *Runner) finish(code int) {
	r.mu.Lock()
	r.endedAt = r.now()
	r.ptmx = nil
	r.proc = nil
	r.mu.Unlock()
	r.exitCode.Store(int64(code))
	r.finished.Store(true)
}

// isPTYClosed reports the error Linux returns from reading a PTY master
// after the last slave descriptor is closed.
func isPTYClosed(err error) bool {
	return errors.Is(err, syscall.EIO)
}

// exitCode maps a Wait result to a shell-style exit status.
func exitCode(cmd *exec.Cmd, waitErr error) int {
	ps := cmd.ProcessState
	if ps == nil {
		if waitErr != nil {
			return -1
		}
		return 0
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return ps.ExitCode()
}

func countLines(b []byte) int {
	return bytes.Count(b, newline)
}
