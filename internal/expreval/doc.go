// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package expreval evaluates template tokens as expressions in a tiny
// sandboxed language. The only names that resolve are "n" (the current
// expansion width), "range" and "repeat". Integer literals, unary minus and
// the arithmetic operators + - * / % are supported.
//
// The sandbox is a hand-rolled interpreter. There is no access to the host
// language, the filesystem or the process environment from within an
// expression. A token that fails to lex, parse or evaluate is not an error;
// it degrades to a literal string.
package expreval
