// ABOUTME: CLI flag parsing using stdlib flag package
// ABOUTME: Flags override config file values only when given explicitly

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/mauromedda/stickybar/internal/config"
)

type cliArgs struct {
	statusCmd  string
	padding    int
	interval   time.Duration
	throttle   time.Duration
	maxRows    int
	color      string
	errorColor string
	encoding   string
	noPTY      bool
	logFile    string
	verbose    bool
	version    bool

	command []string
	set     map[string]bool
}

var errNoCommand = errors.New("no command given")

func newFlagSet(args *cliArgs, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("stickybar", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: stickybar [flags] [--] command [args...]\n\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&args.statusCmd, "status-cmd", "", "Shell command producing the status text (reads run state JSON on stdin)")
	fs.IntVar(&args.padding, "status-padding", 0, "Spaces to prepend to the status command output")
	fs.DurationVar(&args.interval, "interval", 0, "Redraw the status this often without output; 0 disables (default 1s)")
	fs.DurationVar(&args.throttle, "throttle", 0, "Minimum time between status producer calls (default 500ms with --status-cmd)")
	fs.IntVar(&args.maxRows, "max-rows", 0, "Rows a long status may wrap onto (default 1)")
	fs.StringVar(&args.color, "color", "", "Status colour: name, 0-255, or #rrggbb")
	fs.StringVar(&args.errorColor, "error-color", "", "Colour of producer failures")
	fs.StringVar(&args.encoding, "encoding", "", "Encoding of the command's output (e.g. latin1)")
	fs.BoolVar(&args.noPTY, "no-pty", false, "Run the command on pipes instead of a pseudo-terminal")
	fs.StringVar(&args.logFile, "log-file", "", "Write diagnostics to this file")
	fs.BoolVar(&args.verbose, "verbose", false, "Log debug diagnostics")
	fs.BoolVar(&args.version, "version", false, "Show version and exit")
	return fs
}

// parseFlags parses argv (without the program name).
func parseFlags(argv []string, output io.Writer) (cliArgs, error) {
	var args cliArgs
	fs := newFlagSet(&args, output)
	if err := fs.Parse(argv); err != nil {
		return args, err
	}

	args.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { args.set[f.Name] = true })
	args.command = fs.Args()

	if !args.version && len(args.command) == 0 {
		fs.Usage()
		return args, errNoCommand
	}
	return args, nil
}

// applyTo overrides cfg with the flags given on the command line.
func (a cliArgs) applyTo(cfg *config.Settings) {
	if a.set["status-cmd"] {
		cfg.StatusCommand = a.statusCmd
	}
	if a.set["status-padding"] {
		cfg.StatusPadding = a.padding
	}
	if a.set["interval"] {
		d := a.interval
		cfg.Interval = &d
	}
	if a.set["throttle"] {
		d := a.throttle
		cfg.Throttle = &d
	}
	if a.set["max-rows"] {
		cfg.MaxRows = a.maxRows
	}
	if a.set["color"] {
		cfg.Colors.Status = a.color
	}
	if a.set["error-color"] {
		cfg.Colors.Error = a.errorColor
	}
	if a.set["encoding"] {
		cfg.Encoding = a.encoding
	}
	if a.noPTY {
		off := false
		cfg.PTY = &off
	}
	if a.set["log-file"] {
		cfg.LogFile = a.logFile
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
}
