// ABOUTME: Controlling terminal selection for PTY children whose stdin is not the PTY
// ABOUTME: Points Ctty at the child's stdout, which is always the PTY slave

//go:build !windows

package runner

import (
	"os/exec"
	"syscall"
)

// setStdoutCtty makes fd 1 the child's controlling terminal. The pty
// package defaults to fd 0, which fails when stdin is a pipe or file.
func setStdoutCtty(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Ctty = 1
}
