// ABOUTME: Windows has no controlling terminal; PTY children fall back to pipes there
// ABOUTME: setStdoutCtty is a no-op kept so the shared runner code builds

//go:build windows

package runner

import "os/exec"

func setStdoutCtty(*exec.Cmd) {}
