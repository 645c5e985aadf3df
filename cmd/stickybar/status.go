// ABOUTME: Builds the status producer: built-in run summary or an external status command
// ABOUTME: Converts runner snapshots into the JSON input of the status command

package main

import (
	"context"

	"github.com/mauromedda/stickybar/internal/runner"
	"github.com/mauromedda/stickybar/internal/statusline"
	"github.com/mauromedda/stickybar/pkg/stickybar"
)

// snapshotter is the part of runner.Runner the producer reads.
type snapshotter interface {
	Snapshot() runner.Snapshot
}

func statusInput(s runner.Snapshot, cwd string, args []string) statusline.Input {
	return statusline.Input{
		Command:   s.Command,
		Running:   s.Running,
		ElapsedMS: s.Elapsed.Milliseconds(),
		Lines:     s.Lines,
		Bytes:     s.Bytes,
		ExitCode:  s.ExitCode,
		CWD:       cwd,
		Args:      args,
	}
}

// newProducer returns the status producer for r. With an external command
// the producer runs it on every call; its failures are shown in the error
// colour by the session.
func newProducer(ctx context.Context, r snapshotter, engine *statusline.Engine, cwd string, args []string) stickybar.Producer {
	if engine == nil || !engine.HasCommand() {
		return stickybar.Text(func(bool) string {
			return runner.Format(r.Snapshot())
		})
	}
	return func(bool) (string, error) {
		// The final frame must render even after the run context is cancelled.
		return engine.Execute(context.WithoutCancel(ctx), statusInput(r.Snapshot(), cwd, args))
	}
}
