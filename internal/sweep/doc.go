// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package sweep expands a command template into the set of concrete commands
// to run. Each template token is evaluated once by expreval; tokens that
// evaluate to sequences determine the expansion width and are substituted
// positionally with cyclic wraparound, while scalar and literal tokens repeat
// unchanged in every generated command.
package sweep
