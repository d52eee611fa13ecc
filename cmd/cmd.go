// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd contains the command-line interface (CLI) for the module.
package cmd

import (
	"os"

	"github.com/matt-FFFFFF/bulkexec/cmd/run"
	"github.com/urfave/cli/v3"
)

// RootCmd is the root command for the CLI.
var RootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "bulkexec",
	Description: `Bulkexec is a parameter-sweep command runner. Selected tokens of a command
template are evaluated as expressions that expand into sequences of values;
the resulting set of concrete commands is executed as independent OS
processes with captured output, and the results can be appended to a CSV
log file.`,
	Usage:     "bulkexec run -o results.csv -- echo 'range(3)'",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}
