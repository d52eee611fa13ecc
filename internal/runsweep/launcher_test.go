// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runsweep

import (
	"bytes"
	"context"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/matt-FFFFFF/bulkexec/internal/ctxlog"
	"github.com/matt-FFFFFF/bulkexec/internal/sweep"
	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping shell test on windows")
	}
}

func TestShellLauncherEcho(t *testing.T) {
	skipOnWindows(t)

	ctx := testCtx()
	launcher := &ShellLauncher{Shell: "/bin/sh"}

	h, err := launcher.Launch(ctx, sweep.Command{"echo", "hello"})
	require.NoError(t, err)

	stdout, stderr, code, err := h.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "hello\n", string(stdout))
	assert.Empty(t, stderr)
}

func TestShellLauncherStderrAndExitCode(t *testing.T) {
	skipOnWindows(t)

	ctx := testCtx()
	launcher := &ShellLauncher{Shell: "/bin/sh"}

	h, err := launcher.Launch(ctx, sweep.Command{"echo", "oops", ">&2;", "exit", "3"})
	require.NoError(t, err)

	stdout, stderr, code, err := h.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "oops\n", string(stderr))
}

func TestShellLauncherShellParsing(t *testing.T) {
	skipOnWindows(t)

	// The joined command line goes through the shell, so expansions and
	// separators in tokens are interpreted.
	ctx := testCtx()
	launcher := &ShellLauncher{Shell: "/bin/sh"}

	h, err := launcher.Launch(ctx, sweep.Command{"FOO=bar;", "echo", "$FOO"})
	require.NoError(t, err)

	stdout, _, code, err := h.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "bar\n", string(stdout))
}

func TestShellLauncherLargeOutput(t *testing.T) {
	skipOnWindows(t)

	// 200KB is well past the kernel pipe buffer: draining must not deadlock
	// against a child blocked in write.
	ctx := testCtx()
	launcher := &ShellLauncher{Shell: "/bin/sh"}

	h, err := launcher.Launch(ctx, sweep.Command{"head", "-c", "200000", "/dev/zero"})
	require.NoError(t, err)

	type result struct {
		stdout []byte
		code   int
		err    error
	}

	done := make(chan result, 1)

	go func() {
		stdout, _, code, err := h.Drain(ctx)
		done <- result{stdout: stdout, code: code, err: err}
	}()

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, 0, res.code)
		assert.Len(t, res.stdout, 200000, "output larger than the pipe buffer is captured in full")
	case <-time.After(10 * time.Second):
		t.Fatal("drain did not complete: child blocked writing to a full pipe")
	}
}

func TestShellLauncherOutputCap(t *testing.T) {
	skipOnWindows(t)

	ctx := testCtx()
	launcher := &ShellLauncher{Shell: "/bin/sh"}

	h, err := launcher.Launch(ctx, sweep.Command{"head", "-c", "9000000", "/dev/zero"})
	require.NoError(t, err)

	type result struct {
		stdout []byte
		err    error
	}

	done := make(chan result, 1)

	go func() {
		stdout, _, _, err := h.Drain(ctx)
		done <- result{stdout: stdout, err: err}
	}()

	select {
	case res := <-done:
		assert.ErrorIs(t, res.err, ErrBufferOverflow)
		assert.Len(t, res.stdout, maxBufferSize, "captured output is truncated at the cap")
	case <-time.After(30 * time.Second):
		t.Fatal("drain did not complete after the capture cap was reached")
	}
}

func TestShellLauncherMissingShell(t *testing.T) {
	skipOnWindows(t)

	ctx := testCtx()
	launcher := &ShellLauncher{Shell: "/not/a/real/shell"}

	_, err := launcher.Launch(ctx, sweep.Command{"echo", "hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCouldNotStartProcess)
}

func TestShellLauncherEmptyCommand(t *testing.T) {
	launcher := &ShellLauncher{}

	_, err := launcher.Launch(testCtx(), sweep.Command{})
	assert.ErrorIs(t, err, ErrEmptyCommand)
}

func TestDefaultShellFromEnv(t *testing.T) {
	skipOnWindows(t)

	stubs := gostub.New()
	defer stubs.Reset()

	stubs.SetEnv("SHELL", "/bin/bash")
	assert.Equal(t, "/bin/bash", defaultShell(testCtx()))

	stubs.UnsetEnv("SHELL")
	assert.Equal(t, binSh, defaultShell(testCtx()))
}

func TestExecutorWithRealShell(t *testing.T) {
	skipOnWindows(t)

	ctx := ctxlog.New(context.Background(), ctxlog.DefaultLogger)
	out := &bytes.Buffer{}
	exec := &Executor{
		Launcher: &ShellLauncher{Shell: "/bin/sh"},
		Stdout:   out,
		sigCh:    make(chan os.Signal, 1),
	}

	records := exec.Run(ctx, sweep.Evaluate(ctx, []string{"echo", "range(3)"}).Commands())

	require.Len(t, records, 3)
	assert.Equal(t, "0\n1\n2\n", out.String())
	assert.False(t, records.HasFailures())
}

func TestExecutorContextCancelKillsChildren(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	out := &bytes.Buffer{}
	exec := &Executor{
		Launcher: &ShellLauncher{Shell: "/bin/sh"},
		Stdout:   out,
		sigCh:    make(chan os.Signal, 1),
	}

	start := time.Now()
	records := exec.Run(ctx, sweep.Evaluate(ctx, []string{"sleep", "30"}).Commands())

	require.Len(t, records, 1)
	assert.Less(t, time.Since(start), 10*time.Second, "cancellation must kill the child")
	assert.NotEqual(t, 0, records[0].ExitCode)
}

func TestExecutorCancelKillsShellDescendants(t *testing.T) {
	skipOnWindows(t)

	// A compound command forces the shell to fork: the sleep runs as a
	// grandchild. Cancellation must reach the whole process group, not just
	// the intermediate shell.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	out := &bytes.Buffer{}
	exec := &Executor{
		Launcher: &ShellLauncher{Shell: "/bin/sh"},
		Stdout:   out,
		sigCh:    make(chan os.Signal, 1),
	}

	start := time.Now()
	records := exec.Run(ctx, sweep.Evaluate(ctx, []string{"sleep", "30;", "echo", "done"}).Commands())

	require.Len(t, records, 1)
	assert.Less(t, time.Since(start), 10*time.Second, "cancellation must kill the shell's descendants")
	assert.NotContains(t, out.String(), "done")
}

func TestReadAllUpToMax(t *testing.T) {
	ctx := testCtx()

	small, err := readAllUpToMax(ctx, bytes.NewReader([]byte("hello")), 10)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(small))

	big, err := readAllUpToMax(ctx, bytes.NewReader(bytes.Repeat([]byte("x"), 20)), 10)
	assert.ErrorIs(t, err, ErrBufferOverflow)
	assert.Len(t, big, 10)
}
