// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run contains the run command, which expands a command template and
// executes the resulting commands.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/bulkexec/internal/config"
	"github.com/matt-FFFFFF/bulkexec/internal/ctxlog"
	"github.com/matt-FFFFFF/bulkexec/internal/recorder"
	"github.com/matt-FFFFFF/bulkexec/internal/runsweep"
	"github.com/matt-FFFFFF/bulkexec/internal/sweep"
	"github.com/urfave/cli/v3"
)

const (
	outputFlag   = "output"
	fileFlag     = "file"
	logLevelFlag = "log-level"

	cliExitStr = ""
)

// ErrGetDefinitionFile is returned when the sweep definition file cannot be read.
var ErrGetDefinitionFile = errors.New("failed to get sweep definition file")

// RunCmd is the command that expands a command template and runs the result.
var RunCmd = &cli.Command{
	Name: "run",
	Description: `Expand a command template and execute every resulting command.

Template tokens are evaluated as expressions in a small sandboxed language.
The bindings are "n" (the current expansion width), "range" (1-3 integer
arguments, half-open) and "repeat" (value, count). A token that is not a
valid expression is used literally. Tokens that evaluate to sequences are
substituted positionally, cycling shorter sequences to match the longest.

Each generated command runs through the host shell with stdout and stderr
captured. The stdout of every process is echoed in launch order. With
--output, a CSV file is written with one row per process holding the
command, its output and its exit code.

The sweep definition file URL uses Hashicorp's go-getter syntax, which
allows for fetching files from various sources.
See https://github.com/hashicorp/go-getter.`,
	Usage:     `bulkexec run -o results.csv -- echo 'range(3)'`,
	ArgsUsage: "[token ...]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:      outputFlag,
			Aliases:   []string{"o"},
			Usage:     "Write results as CSV to the specified file",
			TakesFile: true,
			Value:     "",
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:     fileFlag,
			Aliases:  []string{"f"},
			Usage:    "Load the command template from a YAML sweep definition. Supports Hashicorp's go-getter URL syntax.",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     logLevelFlag,
			Usage:    "Set the log level (DEBUG, INFO, WARN, ERROR)",
			Value:    "",
			OnlyOnce: true,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	if lvl := cmd.String(logLevelFlag); lvl != "" {
		ctxlog.LevelVar.Set(ctxlog.ParseLevel(lvl))
	}

	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	tokens := cmd.Args().Slice()
	output := cmd.String(outputFlag)

	if url := cmd.String(fileFlag); url != "" {
		data, err := getURL(ctx, url)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		def, err := config.BuildFromYAML(ctx, data)
		if err != nil {
			logger.Error(fmt.Sprintf("Failed to build sweep definition from file %s: %s", url, err.Error()))
			return cli.Exit(cliExitStr, 1)
		}

		// Command-line tokens and flags take precedence over the file.
		if len(tokens) == 0 {
			tokens = def.Command
		}

		if output == "" {
			output = def.Output
		}
	}

	if len(tokens) == 0 {
		logger.Error("No command template given. Pass tokens as arguments or use the --file flag.")
		return cli.Exit(cliExitStr, 1)
	}

	logger.Debug("command template", "tokens", tokens, "output", output)

	plan := sweep.Evaluate(ctx, tokens)
	logger.Debug("template evaluated", "width", plan.Width())

	exec := &runsweep.Executor{}

	records := exec.Run(ctx, plan.Commands())

	if err := records.Err(); err != nil {
		// Per-record launch and drain failures have already been
		// reported; they do not halt the run.
		logger.Warn("some processes did not complete cleanly", "error", err)
	}

	if output != "" {
		rec := &recorder.Recorder{}

		if err := rec.Write(ctx, output, tokens, records); err != nil {
			logger.Error(fmt.Sprintf("Failed to write results to %s: %s", output, err.Error()))
			return cli.Exit(cliExitStr, 1)
		}
	}

	return nil
}

// getURL retrieves the content from the specified URL using Hashicorp's go-getter.
// It removes the temporary directory after reading the file's content.
func getURL(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, ErrGetDefinitionFile
	}

	tmpDir, err := os.MkdirTemp("", "bulkexec-getter-*")
	if err != nil {
		return nil, errors.Join(ErrGetDefinitionFile, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrGetDefinitionFile, err)
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     url,
		Dst:     filepath.Join(tmpDir, "g"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	var fileName string
	// If it's not a local file URL, we need to download the directory and read the file from there
	// https://github.com/hashicorp/go-getter/issues/98
	if ok, err := getter.Detect(req, &getter.FileGetter{}); !ok || err != nil {
		if err != nil {
			return nil, errors.Join(ErrGetDefinitionFile, err)
		}

		var newURL string

		newURL, fileName = splitFileNameFromGetterURL(url)
		if newURL == "" || fileName == "" {
			return nil, fmt.Errorf("%w: invalid URL format: %s", ErrGetDefinitionFile, url)
		}

		req.Src = newURL
	}

	if fileName == "" {
		req.Src = filepath.Dir(url)
		fileName = filepath.Base(url)
	}

	res, err := client.Get(ctx, req)
	if err != nil {
		return nil, errors.Join(ErrGetDefinitionFile, err)
	}

	data, err := os.ReadFile(filepath.Join(res.Dst, fileName))
	if err != nil {
		return nil, errors.Join(ErrGetDefinitionFile, err)
	}

	return data, nil
}

const (
	goGetterPathSeparator = "//"
	goGetterRefSeparator  = "?"
	minimumGetterParts    = 3 // Minimum parts in a go-getter URL: scheme, host, and path
)

// splitFileNameFromGetterURL splits the URL into the directory and file name.
// It returns the new getter URL without the file name and the file name itself.
// It will append any ref query parameter to the new URL if it exists.
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref, fileName string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	if strings.Contains(parts[len(parts)-1], goGetterRefSeparator) {
		refSplit := strings.Split(parts[len(parts)-1], goGetterRefSeparator)
		if len(refSplit) > 1 {
			ref = strings.Join(refSplit[1:], "")
		}

		parts[len(parts)-1] = refSplit[0]
	}

	if filepath.Clean(parts[len(parts)-1]) == filepath.Dir(parts[len(parts)-1]) {
		return "", ""
	}

	fileName = filepath.Base(parts[len(parts)-1])
	parts[len(parts)-1] = filepath.Dir(parts[len(parts)-1])

	if parts[len(parts)-1] == "." {
		parts = parts[:len(parts)-1] // Remove the last part which is the file name
	}

	newURL := strings.Join(parts, goGetterPathSeparator)

	if ref != "" {
		newURL += goGetterRefSeparator + ref
	}

	return newURL, fileName
}
