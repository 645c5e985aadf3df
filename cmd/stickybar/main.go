// ABOUTME: CLI entry point: runs a command with a sticky status line below its output
// ABOUTME: Loads config, starts the runner, and mirrors the child's exit code

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/mauromedda/stickybar/internal/config"
	"github.com/mauromedda/stickybar/internal/log"
	"github.com/mauromedda/stickybar/internal/runner"
	"github.com/mauromedda/stickybar/internal/statusline"
	"github.com/mauromedda/stickybar/pkg/stickybar"
	"github.com/mauromedda/stickybar/pkg/terminal"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	args, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if args.version {
		fmt.Printf("stickybar %s (%s) built %s\n", version, commit, date)
		os.Exit(0)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	code, err := run(context.Background(), args, sigs)
	signal.Stop(sigs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stickybar: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}

// run loads settings, runs the command and returns its exit code. Signals
// received on sigs are relayed to the child, whose exit status then
// reports them.
func run(ctx context.Context, args cliArgs, sigs <-chan os.Signal) (int, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return 1, fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return 1, err
	}
	args.applyTo(cfg)
	if err := cfg.Validate(); err != nil {
		return 1, fmt.Errorf("invalid settings: %w", err)
	}

	closeLog, err := setupLogging(cfg)
	if err != nil {
		return 1, err
	}
	defer closeLog()

	rcfg := runner.Config{
		Name:     args.command[0],
		Args:     args.command[1:],
		Env:      envList(cfg.Env),
		PTY:      cfg.UsePTY(),
		Encoding: cfg.Encoding,
		Stdin:    os.Stdin,
	}

	if !terminal.CanUpdateStatus(os.Stdout) {
		log.Debug("stdout is not a capable terminal, passing output through")
		rcfg.PTY = false
		r, err := runner.New(rcfg)
		if err != nil {
			return 1, err
		}
		defer relaySignals(sigs, r, true)()
		return r.Run(ctx, os.Stdout)
	}

	rcfg.Interactive = rcfg.PTY && term.IsTerminal(int(os.Stdin.Fd()))
	return runWithStatus(ctx, cfg, rcfg, cwd, args.command, sigs)
}

func runWithStatus(ctx context.Context, cfg *config.Settings, rcfg runner.Config, cwd string, command []string, sigs <-chan os.Signal) (int, error) {
	maxRows := max(cfg.MaxRows, 1)
	console := terminal.NewConsole(os.Stdout)
	if cols, rows, err := console.Size(); err == nil {
		rcfg.Cols, rcfg.Rows = cols, max(rows-maxRows, 1)
	}

	r, err := runner.New(rcfg)
	if err != nil {
		return 1, err
	}

	var engine *statusline.Engine
	if cfg.StatusCommand != "" {
		engine = statusline.New(cfg.StatusCommand, cfg.StatusPadding).WithTimeout(cfg.StatusTimeout)
	}

	palette, err := cfg.Palette()
	if err != nil {
		return 1, err
	}

	if rcfg.Interactive {
		restoreInput, err := terminal.MakeRaw(os.Stdin)
		if err != nil {
			return 1, err
		}
		defer func() {
			if err := restoreInput(); err != nil {
				log.Warn("%v", err)
			}
		}()
	}

	session, err := stickybar.Open(os.Stdout, newProducer(ctx, r, engine, cwd, command[1:]),
		stickybar.WithMaxRows(maxRows),
		stickybar.WithPalette(palette),
		stickybar.WithInterval(cfg.RefreshInterval()),
		stickybar.WithThrottle(cfg.StatusThrottle()),
		stickybar.WithResizeRefresh(),
	)
	if err != nil {
		return 1, err
	}
	defer relaySignals(sigs, r, !rcfg.PTY)()

	stopResize := console.OnResize(func(width, height int) {
		if err := r.Resize(width, max(height-maxRows, 1)); err != nil {
			log.Debug("%v", err)
		}
	})
	defer stopResize()

	code, runErr := r.Run(ctx, session)
	closeErr := session.Close()
	if st := session.Stats(); st.Failures > 0 {
		log.Warn("status producer failed %d of %d frames", st.Failures, st.Frames)
	}
	return code, errors.Join(runErr, closeErr)
}

// setupLogging routes diagnostics away from the terminal the status line
// is drawn on.
func setupLogging(cfg *config.Settings) (func(), error) {
	if cfg.LogLevel != "" {
		lvl, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		log.SetLevel(lvl)
	}

	path := cfg.LogFile
	if path == "" && log.GetLevel() <= log.LevelDebug {
		if err := config.EnsureDir(config.GlobalDir()); err == nil {
			path = config.DefaultLogFile()
		}
	}
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	prev := log.SetOutput(f)
	return func() {
		log.SetOutput(prev)
		_ = f.Close()
	}, nil
}

type signaler interface {
	Signal(sig os.Signal) error
}

// relaySignals forwards sigs to the child until the returned stop function
// is called. A child sharing our process group already got the terminal's
// interrupt, so interrupts are not repeated to it.
func relaySignals(sigs <-chan os.Signal, child signaler, sharesGroup bool) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		for {
			select {
			case <-done:
				return
			case sig := <-sigs:
				if sig == os.Interrupt && sharesGroup {
					continue
				}
				log.Debug("relaying %v to the command", sig)
				if err := child.Signal(sig); err != nil {
					log.Warn("%v", err)
				}
			}
		}
	}()
	return func() {
		close(done)
		<-exited
	}
}

func envList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	return list
}
