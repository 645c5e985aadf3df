// ABOUTME: Tests for the command runner in pipe and PTY mode
// ABOUTME: Uses sh -c children; PTY tests skip where no pseudo-terminal is available

package runner

import (
	"bytes"
	"context"
	"os"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitOutput(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("no %q in child output %q", want, out.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func requirePTY(t *testing.T) {
	t.Helper()
	requireShell(t)
	if _, err := os.Stat("/dev/ptmx"); err != nil {
		t.Skip("no pseudo-terminal support")
	}
}

func TestRun_Pipe(t *testing.T) {
	t.Parallel()
	requireShell(t)

	tests := []struct {
		name      string
		script    string
		wantOut   string
		wantCode  int
		wantLines int64
	}{
		{"stdout", "echo one; echo two", "one\ntwo\n", 0, 2},
		{"stderr merged", "echo out; echo err >&2", "out\nerr\n", 0, 2},
		{"partial line", "printf 'no newline'", "no newline", 0, 0},
		{"exit code", "echo failing; exit 3", "failing\n", 3, 1},
		{"silent", "true", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := New(Config{Name: "sh", Args: []string{"-c", tt.script}})
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			var out syncBuffer
			code, err := r.Run(context.Background(), &out)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if got := out.String(); got != tt.wantOut {
				t.Errorf("output = %q, want %q", got, tt.wantOut)
			}

			s := r.Snapshot()
			if s.Running {
				t.Error("snapshot still running after Run")
			}
			if s.ExitCode == nil || *s.ExitCode != tt.wantCode {
				t.Errorf("snapshot exit code = %v, want %d", s.ExitCode, tt.wantCode)
			}
			if s.Lines != tt.wantLines {
				t.Errorf("lines = %d, want %d", s.Lines, tt.wantLines)
			}
			if s.Bytes != int64(len(tt.wantOut)) {
				t.Errorf("bytes = %d, want %d", s.Bytes, len(tt.wantOut))
			}
		})
	}
}

func TestRun_Stdin(t *testing.T) {
	t.Parallel()
	requireShell(t)

	r, err := New(Config{Name: "cat", Stdin: strings.NewReader("piped\n")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var out syncBuffer
	if _, err := r.Run(context.Background(), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := out.String(); got != "piped\n" {
		t.Errorf("output = %q, want %q", got, "piped\n")
	}
}

func TestRun_Env(t *testing.T) {
	t.Parallel()
	requireShell(t)

	r, err := New(Config{
		Name: "sh",
		Args: []string{"-c", "echo $STICKYBAR_RUNNER_TEST"},
		Env:  []string{"STICKYBAR_RUNNER_TEST=hello"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var out syncBuffer
	if _, err := r.Run(context.Background(), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := out.String(); got != "hello\n" {
		t.Errorf("output = %q, want %q", got, "hello\n")
	}
}

func TestRun_Encoding(t *testing.T) {
	t.Parallel()
	requireShell(t)

	r, err := New(Config{
		Name:     "sh",
		Args:     []string{"-c", `printf 'caf\351\n'`},
		Encoding: "latin1",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var out syncBuffer
	if _, err := r.Run(context.Background(), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := out.String(); got != "café\n" {
		t.Errorf("output = %q, want %q", got, "café\n")
	}
}

func TestRun_NotFound(t *testing.T) {
	t.Parallel()

	r, err := New(Config{Name: "stickybar-no-such-command"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	code, err := r.Run(context.Background(), &syncBuffer{})
	if err == nil {
		t.Fatal("Run succeeded for a missing command")
	}
	if code != 127 {
		t.Errorf("exit code = %d, want 127", code)
	}
	if s := r.Snapshot(); s.Running || s.ExitCode == nil {
		t.Errorf("snapshot = %+v, want finished", s)
	}
}

func TestRun_Cancel(t *testing.T) {
	t.Parallel()
	requireShell(t)

	r, err := New(Config{Name: "sleep", Args: []string{"30"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	code, _ := r.Run(ctx, &syncBuffer{})
	if time.Since(start) > 10*time.Second {
		t.Fatal("Run did not stop after cancellation")
	}
	if code != 128+int(syscall.SIGTERM) {
		t.Errorf("exit code = %d, want %d from SIGTERM", code, 128+int(syscall.SIGTERM))
	}
}

func TestRun_CancelKillsAfterDelay(t *testing.T) {
	t.Parallel()
	requireShell(t)

	r, err := New(Config{
		Name:      "sh",
		Args:      []string{"-c", "trap '' TERM; echo ready; while :; do sleep 1; done"},
		KillDelay: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan int, 1)
	go func() {
		code, _ := r.Run(ctx, &out)
		done <- code
	}()
	waitOutput(t, &out, "ready")
	cancel()

	select {
	case code := <-done:
		if code != 128+int(syscall.SIGKILL) {
			t.Errorf("exit code = %d, want %d from SIGKILL", code, 128+int(syscall.SIGKILL))
		}
	case <-time.After(10 * time.Second):
		t.Fatal("child ignoring SIGTERM was never killed")
	}
}

func TestRun_Signal(t *testing.T) {
	t.Parallel()
	requireShell(t)

	r, err := New(Config{Name: "sh", Args: []string{"-c", "echo ready; exec sleep 30"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Signal(syscall.SIGTERM); err != nil {
		t.Errorf("Signal before start: %v", err)
	}

	var out syncBuffer
	done := make(chan int, 1)
	go func() {
		code, _ := r.Run(context.Background(), &out)
		done <- code
	}()
	waitOutput(t, &out, "ready")
	if err := r.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("Signal: %v", err)
	}

	select {
	case code := <-done:
		if code != 128+int(syscall.SIGTERM) {
			t.Errorf("exit code = %d, want %d after SIGTERM", code, 128+int(syscall.SIGTERM))
		}
	case <-time.After(10 * time.Second):
		t.Fatal("child survived the signal")
	}
	if err := r.Signal(syscall.SIGTERM); err != nil {
		t.Errorf("Signal after exit: %v", err)
	}
}

func TestRun_Once(t *testing.T) {
	t.Parallel()
	requireShell(t)

	r, err := New(Config{Name: "true"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := r.Run(context.Background(), &syncBuffer{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := r.Run(context.Background(), &syncBuffer{}); err == nil {
		t.Error("second Run succeeded")
	}
}

func TestRun_SnapshotWhileRunning(t *testing.T) {
	t.Parallel()
	requireShell(t)

	r, err := New(Config{Name: "sh", Args: []string{"-c", "echo ready; sleep 1"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s := r.Snapshot(); s.Running || s.ExitCode != nil {
		t.Errorf("snapshot before Run = %+v", s)
	}

	var out syncBuffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = r.Run(context.Background(), &out)
	}()

	waitOutput(t, &out, "ready")
	s := r.Snapshot()
	if !s.Running || s.ExitCode != nil || s.Lines != 1 {
		t.Errorf("snapshot while running = %+v", s)
	}
	<-done
}

func TestRun_PTY(t *testing.T) {
	t.Parallel()
	requirePTY(t)

	r, err := New(Config{
		Name: "sh",
		Args: []string{"-c", "test -t 1 && echo tty; stty size"},
		PTY:  true,
		Cols: 77,
		Rows: 11,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var out syncBuffer
	code, err := r.Run(context.Background(), &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	got := out.String()
	if !strings.Contains(got, "tty") {
		t.Errorf("output %q: child stdout is not a terminal", got)
	}
	if !strings.Contains(got, "11 77") {
		t.Errorf("output %q: want window size 11 77", got)
	}
	if err := r.Resize(80, 24); err != nil {
		t.Errorf("Resize after exit: %v", err)
	}
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); err == nil {
		t.Error("New without a command succeeded")
	}
	if _, err := New(Config{Name: "true", Encoding: "klingon-8"}); err == nil {
		t.Error("New with unknown encoding succeeded")
	}
}

func TestDecoder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		wantNil bool
		wantErr bool
	}{
		{"", true, false},
		{"utf-8", true, false},
		{"UTF8", true, false},
		{"latin1", false, false},
		{"shift_jis", false, false},
		{"nope", true, true},
	}
	for _, tt := range tests {
		d, err := Decoder(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("Decoder(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if (d == nil) != tt.wantNil {
			t.Errorf("Decoder(%q) nil = %v, want %v", tt.name, d == nil, tt.wantNil)
		}
	}
}

// runWithDeadline fails the test instead of hanging when the child never
// sees the end of its input.
func runWithDeadline(t *testing.T, r *Runner) (string, int) {
	t.Helper()
	var out syncBuffer
	type result struct {
		code int
		err  error
	}
	done := make(chan result, 1)
	go func() {
		code, err := r.Run(context.Background(), &out)
		done <- result{code, err}
	}()
	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("Run: %v", res.err)
		}
		return out.String(), res.code
	case <-time.After(10 * time.Second):
		_ = r.Signal(os.Kill)
		t.Fatalf("Run did not finish; output so far %q", out.String())
		return "", 0
	}
}

func TestRun_PTYPipedStdin(t *testing.T) {
	t.Parallel()
	requirePTY(t)

	r, err := New(Config{
		Name:  "sh",
		Args:  []string{"-c", "cat; test -t 1 && echo tty"},
		PTY:   true,
		Stdin: strings.NewReader("hi\n"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, code := runWithDeadline(t, r)
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if got != "hi\r\ntty\r\n" {
		t.Errorf("output = %q, want the input once and a terminal stdout", got)
	}
	if s := r.Snapshot(); s.Lines != 2 {
		t.Errorf("lines = %d, want 2", s.Lines)
	}
}

func TestRun_PTYInteractive(t *testing.T) {
	t.Parallel()
	requirePTY(t)

	r, err := New(Config{
		Name:        "sh",
		Args:        []string{"-c", "test -t 0 && read line && echo got=$line"},
		PTY:         true,
		Stdin:       strings.NewReader("typed\n"),
		Interactive: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, code := runWithDeadline(t, r)
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(got, "got=typed") {
		t.Errorf("output = %q, want keystrokes delivered through the terminal", got)
	}
}
