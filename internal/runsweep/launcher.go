// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runsweep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"syscall"

	"github.com/matt-FFFFFF/bulkexec/internal/ctxlog"
	"github.com/matt-FFFFFF/bulkexec/internal/sweep"
)

const (
	maxBufferSize = 8 * 1024 * 1024 // 8MB cap on captured output per stream

	goosWindows          = "windows"
	commandSwitchWindows = "/C"         // Command switch for Windows cmd.exe
	commandSwitchUnix    = "-c"         // Command switch for Unix-like shells
	winSystem32          = "System32"   // Directory where cmd.exe is located on Windows.
	cmdExe               = "cmd.exe"    // Command interpreter executable on Windows.
	binSh                = "/bin/sh"    // Default shell for Unix-like systems.
	winSystemRootEnv     = "SystemRoot" // Environment variable for the Windows system root directory.
)

var (
	// ErrBufferOverflow is returned when the output exceeds the max size.
	ErrBufferOverflow = fmt.Errorf("output exceeds max size of %d bytes", maxBufferSize)
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToReadBuffer is returned when the buffer from the operating system pipe could not be read.
	ErrFailedToReadBuffer = errors.New("failed to read buffer")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrEmptyCommand is returned when a generated command has no tokens.
	ErrEmptyCommand = errors.New("empty command")
)

// Launcher starts a generated command as an independent OS process. Tests
// substitute a fake implementation to keep the executor deterministic.
type Launcher interface {
	Launch(ctx context.Context, cmd sweep.Command) (Handle, error)
}

// Handle is a started process whose output is being captured.
type Handle interface {
	// Signal forwards an OS signal to the process.
	Signal(sig os.Signal) error
	// Kill terminates the process.
	Kill() error
	// Drain blocks until the process terminates, then returns the captured
	// stdout, stderr and the exit code. Drain must be called exactly once.
	Drain(ctx context.Context) (stdout, stderr []byte, exitCode int, err error)
}

var _ Launcher = (*ShellLauncher)(nil)

// ShellLauncher launches commands through the host's command interpreter.
// The command tokens are joined with spaces and the resulting string is
// subject to the shell's parsing, globbing and quoting rules. This mirrors
// the tool's contract: expanded values may deliberately contain shell
// constructs, so callers must treat the template as trusted input.
type ShellLauncher struct {
	// Shell overrides the interpreter. When empty the SHELL environment
	// variable is used, falling back to /bin/sh (cmd.exe on Windows).
	Shell string
}

// Launch implements the Launcher interface.
func (l *ShellLauncher) Launch(ctx context.Context, cmd sweep.Command) (Handle, error) {
	if len(cmd) == 0 {
		return nil, ErrEmptyCommand
	}

	shell := l.Shell
	if shell == "" {
		shell = defaultShell(ctx)
	}

	commandLine := strings.Join(cmd, " ")

	commandSwitch := commandSwitchUnix
	if runtime.GOOS == goosWindows {
		commandSwitch = commandSwitchWindows
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		closeAll(rOut, wOut)

		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	ctxlog.Debug(ctx, "starting process", "shell", shell, "commandLine", commandLine)

	ps, err := os.StartProcess(shell, []string{shell, commandSwitch, commandLine}, &os.ProcAttr{
		Files: []*os.File{os.Stdin, wOut, wErr},
		Sys:   sysProcAttr(),
	})
	if err != nil {
		closeAll(rOut, wOut, rErr, wErr)

		return nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	// The child holds its own copies of the write ends. Closing ours now
	// means the capture reads see EOF as soon as every process in the
	// child's group has exited.
	closeAll(wOut, wErr)

	ctxlog.Debug(ctx, "process started", "pid", ps.Pid)

	return &osHandle{
		ps:   ps,
		rOut: rOut,
		rErr: rErr,
	}, nil
}

// osHandle wraps a started OS process and the pipes capturing its output.
type osHandle struct {
	ps   *os.Process
	rOut *os.File
	rErr *os.File
}

// Signal forwards a signal to the process and its descendants.
func (h *osHandle) Signal(sig os.Signal) error {
	return signalProcess(h.ps, sig)
}

// Kill terminates the process and its descendants. A process that has already
// exited is not an error.
func (h *osHandle) Kill() error {
	err := killProcess(h.ps)
	if err != nil && !errors.Is(err, os.ErrProcessDone) && !errors.Is(err, syscall.ESRCH) {
		return err
	}

	return nil
}

// Drain implements the Handle interface. Both pipes are read concurrently
// with Wait: a child that writes more than the kernel pipe buffer would
// otherwise block in write while we block waiting for it to exit.
func (h *osHandle) Drain(ctx context.Context) (stdout, stderr []byte, exitCode int, err error) {
	defer closeAll(h.rOut, h.rErr)

	var (
		wg             sync.WaitGroup
		outErr, errErr error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()

		stdout, outErr = readAllUpToMax(ctx, h.rOut, maxBufferSize)
	}()

	go func() {
		defer wg.Done()

		stderr, errErr = readAllUpToMax(ctx, h.rErr, maxBufferSize)
	}()

	state, psErr := h.ps.Wait()

	wg.Wait()

	exitCode = -1
	if state != nil {
		exitCode = state.ExitCode()
	}

	err = psErr
	if outErr != nil {
		err = errors.Join(err, outErr)
	}

	if errErr != nil {
		err = errors.Join(err, errErr)
	}

	return stdout, stderr, exitCode, err
}

func readAllUpToMax(ctx context.Context, r io.Reader, maxBufferSize int64) ([]byte, error) {
	var buf bytes.Buffer

	n, err := io.CopyN(&buf, r, maxBufferSize+1)
	if err != nil && err != io.EOF {
		return nil, errors.Join(ErrFailedToReadBuffer, err)
	}

	if n > maxBufferSize {
		ctxlog.Debug(ctx, "buffer overflow in readAllUpToMax", "bytesRead", n, "maxBytes", maxBufferSize)

		// Keep consuming so the writer is not left blocked on a full pipe.
		_, _ = io.Copy(io.Discard, r)

		return buf.Bytes()[:maxBufferSize], ErrBufferOverflow
	}

	return buf.Bytes(), nil
}

func defaultShell(ctx context.Context) string {
	if runtime.GOOS == goosWindows {
		systemRoot := os.Getenv(winSystemRootEnv)
		if systemRoot == "" {
			systemRoot = `C:\Windows`
		}

		return fmt.Sprintf(`%s\%s\%s`, systemRoot, winSystem32, cmdExe)
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		ctxlog.Debug(ctx, "using SHELL environment variable", "shell", shell)
		return shell
	}

	return binSh
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
