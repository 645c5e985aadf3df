// ABOUTME: Package stickybar pins a status line to the bottom of the terminal
// ABOUTME: while ordinary output keeps scrolling above it.

// Package stickybar renders a persistent status line below a program's
// regular terminal output.
//
// Every write is routed through a single writer goroutine that erases the
// previous status line, emits the output in place and redraws the status
// line underneath, leaving the cursor exactly where the output left it. The
// status text comes from a Producer that is called once per frame with
// running set to true, and one last time with running set to false when the
// session closes; that final text stays in the scrollback as a normal line.
//
// Explicit handle:
//
//	s, err := stickybar.Open(os.Stdout, stickybar.Text(func(running bool) string {
//	    return fmt.Sprintf("%d/%d done", done, total)
//	}))
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	fmt.Fprintln(s, "building...")
//
// Ambient form, replacing os.Stdout for the duration:
//
//	err := stickybar.WithActive(producer, func() error {
//	    fmt.Println("building...")
//	    return nil
//	})
//
// The protocol only uses relative cursor movement (index, cursor up, save
// and restore), so it works wherever the cursor is in the viewport and keeps
// working while the terminal scrolls.
package stickybar
