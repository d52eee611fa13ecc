// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package recorder persists the results of a sweep to a CSV destination.
// The header row is the raw template tokens followed by stdout, stderr and
// returncode; each data row is the generated command for one process followed
// by its captured output and exit code, in launch order.
package recorder

import (
	"context"
	"encoding/csv"
	"errors"
	"strconv"

	"github.com/matt-FFFFFF/bulkexec/internal/ctxlog"
	"github.com/matt-FFFFFF/bulkexec/internal/runsweep"
	"github.com/spf13/afero"
)

var (
	// ErrOpenDestination is returned when the destination file cannot be created.
	ErrOpenDestination = errors.New("could not open output destination")
	// ErrWriteDestination is returned when a row cannot be written.
	ErrWriteDestination = errors.New("could not write to output destination")
)

// resultColumns are appended to the template tokens in the header row.
var resultColumns = []string{"stdout", "stderr", "returncode"}

// Recorder writes sweep results to a CSV file.
type Recorder struct {
	// FS is the filesystem the destination is created on. Defaults to the
	// OS filesystem; tests use an in-memory one.
	FS afero.Fs
}

// Write creates (truncating) the destination and writes the header row
// followed by one row per record. Any I/O error is fatal to the run: it is
// returned to the caller rather than producing a silently truncated log.
// The file is closed on all paths.
func (r *Recorder) Write(ctx context.Context, destination string, header []string, records runsweep.Records) (err error) {
	fs := r.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}

	f, err := fs.Create(destination)
	if err != nil {
		return errors.Join(ErrOpenDestination, err)
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errors.Join(ErrWriteDestination, closeErr)
		}
	}()

	w := csv.NewWriter(f)

	headerRow := make([]string, 0, len(header)+len(resultColumns))
	headerRow = append(headerRow, header...)
	headerRow = append(headerRow, resultColumns...)

	if err := w.Write(headerRow); err != nil {
		return errors.Join(ErrWriteDestination, err)
	}

	for _, rec := range records {
		row := make([]string, 0, len(rec.Command)+len(resultColumns))
		row = append(row, rec.Command...)
		row = append(row,
			string(rec.StdOut),
			string(rec.StdErr),
			strconv.Itoa(rec.ExitCode),
		)

		if err := w.Write(row); err != nil {
			return errors.Join(ErrWriteDestination, err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return errors.Join(ErrWriteDestination, err)
	}

	ctxlog.Info(ctx, "results written", "destination", destination, "rows", len(records))

	return nil
}
