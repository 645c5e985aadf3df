// ABOUTME: Built-in status text for a wrapped command
// ABOUTME: Shows the command, elapsed time and line count, plus the exit status once finished

package runner

import (
	"fmt"
	"strings"
	"time"
)

const (
	runningMark = "▶"
	successMark = "✔"
	failureMark = "✘"
	separator   = " · "
)

// Format renders s as a one-line status.
func Format(s Snapshot) string {
	var b strings.Builder

	switch {
	case s.ExitCode == nil:
		b.WriteString(runningMark)
	case *s.ExitCode == 0:
		b.WriteString(successMark)
	default:
		b.WriteString(failureMark)
	}
	b.WriteByte(' ')
	b.WriteString(s.Command)

	if s.ExitCode != nil {
		fmt.Fprintf(&b, "%sexit %d", separator, *s.ExitCode)
	}
	b.WriteString(separator)
	b.WriteString(FormatElapsed(s.Elapsed))
	b.WriteString(separator)
	if s.Lines == 1 {
		b.WriteString("1 line")
	} else {
		fmt.Fprintf(&b, "%d lines", s.Lines)
	}
	return b.String()
}

// FormatElapsed renders d with a tenth of a second precision under a minute
// and whole seconds above.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	sec := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	return fmt.Sprintf("%dm%02ds", m, sec)
}
