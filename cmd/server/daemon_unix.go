//go:build !windows

package main

import (
	"os/exec"
	"syscall"
)

// detach starts cmd in a new session
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
