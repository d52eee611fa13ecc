// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runsweep

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/bulkexec/internal/sweep"
)

// Record associates one generated command with its execution result. It is
// created at launch time and completed by the draining pass; it is never
// mutated by more than one collector.
type Record struct {
	Command  sweep.Command // the generated command, read-only after creation
	StdOut   []byte        // captured standard output
	StdErr   []byte        // captured standard error
	Err      error         // launch or drain error, if any
	Index    int           // zero-based launch index
	ExitCode int           // process exit code, -1 when the process could not be started

	handle Handle // nil when the launch failed
}

// Launched reports whether the process behind this record was started.
func (r *Record) Launched() bool {
	return r.handle != nil
}

// Records is the ordered list of results for one run, in launch order.
type Records []*Record

// HasFailures reports whether any record failed to launch or exited non-zero.
func (r Records) HasFailures() bool {
	for _, rec := range r {
		if rec.Err != nil || rec.ExitCode != 0 {
			return true
		}
	}

	return false
}

// Err aggregates the launch and drain errors of all records. Non-zero exit
// codes are not errors; they are reported per-record only.
func (r Records) Err() error {
	var errs *multierror.Error

	for _, rec := range r {
		if rec.Err != nil {
			errs = multierror.Append(errs, fmt.Errorf("process %d: %w", rec.Index, rec.Err))
		}
	}

	return errs.ErrorOrNil()
}
