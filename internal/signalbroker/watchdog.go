// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/bulkexec/internal/ctxlog"
)

// Watch monitors the signal channel and handles signals.
// The first signal of a given type is forwarded to running child processes by
// the executor; Watch cancels the context on the second signal of that type,
// which forces any still-running children to be killed.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) {
	sigMap := make(map[os.Signal]struct{})
	for sig := range sigCh {
		if _, ok := sigMap[sig]; ok {
			ctxlog.Logger(ctx).Info("watchdog", "detail", "received second signal of type, forcefully terminating", "signal", sig.String())
			close(sigCh)
			cancel()

			return
		}

		ctxlog.Logger(ctx).Info("watchdog", "detail", "received first signal of type, forwarding to children", "signal", sig.String())

		sigMap[sig] = struct{}{}
	}
}
