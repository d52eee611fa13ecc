// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runsweep

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/matt-FFFFFF/bulkexec/internal/ctxlog"
	"github.com/matt-FFFFFF/bulkexec/internal/signalbroker"
	"github.com/matt-FFFFFF/bulkexec/internal/sweep"
)

// Executor runs generated commands as independent OS processes.
type Executor struct {
	// Launcher starts each process. Defaults to a ShellLauncher.
	Launcher Launcher
	// Stdout receives the captured stdout of every process, in launch
	// order. Defaults to os.Stdout.
	Stdout io.Writer
	// sigCh receives OS signals to forward to running children. Settable
	// for tests.
	sigCh chan os.Signal
}

// Run launches every command yielded by the cursor, then drains each process
// in launch order. A command that fails to launch produces a failed record
// with exit code -1 and does not prevent sibling commands from running. The
// returned records are in launch order and complete.
func (e *Executor) Run(ctx context.Context, commands *sweep.Cursor) Records {
	logger := ctxlog.Logger(ctx)

	launcher := e.Launcher
	if launcher == nil {
		launcher = &ShellLauncher{}
	}

	stdout := e.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	sigCh := e.sigCh
	if sigCh == nil {
		sigCh = signalbroker.New(ctx)
		defer signalbroker.Stop(sigCh)
	}

	// Launch pass: issue every launch before collecting anything so the
	// children run concurrently.
	var records Records

	live := newLiveSet()

	for idx := 0; ; idx++ {
		cmd, ok := commands.Next()
		if !ok {
			break
		}

		rec := &Record{Index: idx, Command: cmd}

		h, err := launcher.Launch(ctx, cmd)
		if err != nil {
			logger.Error("failed to launch process", "index", idx, "command", cmd, "error", err)

			rec.Err = err
			rec.ExitCode = -1
		} else {
			rec.handle = h

			live.add(h)
		}

		records = append(records, rec)
	}

	logger.Debug("all processes launched", "count", len(records))

	// Watchdog: forward signals to all still-running children and kill
	// them if the context is cancelled.
	done := make(chan struct{})
	defer close(done)

	go watch(ctx, sigCh, live, done)

	// Drain pass: collect results strictly in launch order.
	for _, rec := range records {
		if !rec.Launched() {
			continue
		}

		out, errOut, code, err := rec.handle.Drain(ctx)
		live.remove(rec.handle)

		rec.StdOut = out
		rec.StdErr = errOut
		rec.ExitCode = code
		rec.Err = err

		logger.Info("process exited", "index", rec.Index, "exitCode", rec.ExitCode, "stdoutBytes", len(rec.StdOut))

		if _, err := stdout.Write(rec.StdOut); err != nil {
			logger.Error("failed to echo process output", "index", rec.Index, "error", err)
		}

		if len(rec.StdErr) > 0 {
			logger.Error("process wrote to stderr", "index", rec.Index, "exitCode", rec.ExitCode, "stderr", string(rec.StdErr))
		}
	}

	return records
}

func watch(ctx context.Context, sigCh chan os.Signal, live *liveSet, done chan struct{}) {
	for {
		select {
		case s := <-sigCh:
			ctxlog.Info(ctx, "forwarding signal to running processes", "signal", s.String())
			live.signal(s)
		case <-ctx.Done():
			ctxlog.Info(ctx, "context done, killing running processes")
			live.kill(ctx)

			return
		case <-done:
			return
		}
	}
}

// liveSet tracks the processes that have been launched but not yet drained.
type liveSet struct {
	mu      sync.Mutex
	handles map[Handle]struct{}
}

func newLiveSet() *liveSet {
	return &liveSet{handles: make(map[Handle]struct{})}
}

func (s *liveSet) add(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handles[h] = struct{}{}
}

func (s *liveSet) remove(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.handles, h)
}

func (s *liveSet) signal(sig os.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for h := range s.handles {
		_ = h.Signal(sig)
	}
}

func (s *liveSet) kill(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for h := range s.handles {
		if err := h.Kill(); err != nil {
			ctxlog.Error(ctx, "failed to kill process", "error", err)
		}
	}
}
