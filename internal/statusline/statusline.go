// ABOUTME: External command engine for custom status line content
// ABOUTME: Pipes run state as JSON to a shell command, captures stdout, applies padding

package statusline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/mailru/easyjson"
)

// DefaultTimeout bounds a command run when the context has no deadline.
const DefaultTimeout = 5 * time.Second

// ErrNoCommand is returned by Execute when no command is configured.
var ErrNoCommand = errors.New("no status command configured")

// Input is the run state piped to the external status command as JSON.
type Input struct {
	Command   string   `json:"command"`
	Running   bool     `json:"running"`
	ElapsedMS int64    `json:"elapsed_ms"`
	Lines     int64    `json:"lines"`
	Bytes     int64    `json:"bytes"`
	ExitCode  *int     `json:"exit_code"` // nil while running
	CWD       string   `json:"cwd,omitempty"`
	Args      []string `json:"args,omitempty"`
}

// Engine executes an external command to produce status line content.
type Engine struct {
	command string
	padding int
	timeout time.Duration
}

// New creates a status line engine with the given shell command and padding.
func New(command string, padding int) *Engine {
	return &Engine{
		command: command,
		padding: padding,
		timeout: DefaultTimeout,
	}
}

// WithTimeout returns a copy of e that uses d when the context has no deadline.
func (e *Engine) WithTimeout(d time.Duration) *Engine {
	c := *e
	if d > 0 {
		c.timeout = d
	}
	return &c
}

// HasCommand reports whether an external command is configured.
func (e *Engine) HasCommand() bool {
	return e.command != ""
}

// Execute runs the configured command, piping the Input as JSON to stdin.
// Returns the trimmed first line of stdout with padding applied.
func (e *Engine) Execute(ctx context.Context, input Input) (string, error) {
	if e.command == "" {
		return "", ErrNoCommand
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	data, err := easyjson.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshaling input: %w", err)
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", e.command)
	cmd.Stdin = bytes.NewReader(data)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("running status line command: %w: %s", err, firstLine(msg))
		}
		return "", fmt.Errorf("running status line command: %w", err)
	}

	result := firstLine(strings.TrimSpace(stdout.String()))

	if e.padding > 0 {
		result = strings.Repeat(" ", e.padding) + result
	}

	return result, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimRight(s[:i], "\r")
	}
	return s
}
