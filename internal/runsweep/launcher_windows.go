// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build windows

package runsweep

import (
	"os"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{}
}

func signalProcess(ps *os.Process, sig os.Signal) error {
	return ps.Signal(sig)
}

func killProcess(ps *os.Process) error {
	return ps.Kill()
}
