// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package runsweep

import (
	"os"
	"syscall"
)

// sysProcAttr places the child in its own process group. The shell forks for
// compound commands, so signals and kills must target the group or the real
// workload survives its interpreter.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func signalProcess(ps *os.Process, sig os.Signal) error {
	if s, ok := sig.(syscall.Signal); ok {
		return syscall.Kill(-ps.Pid, s)
	}

	return ps.Signal(sig)
}

func killProcess(ps *os.Process) error {
	return syscall.Kill(-ps.Pid, syscall.SIGKILL)
}
