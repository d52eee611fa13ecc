// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sweep

import (
	"context"

	"github.com/matt-FFFFFF/bulkexec/internal/ctxlog"
	"github.com/matt-FFFFFF/bulkexec/internal/expreval"
)

// Command is one concrete command produced by the expansion. It has the same
// number of tokens as the template.
type Command []string

// Plan holds the evaluated template. It is produced once per run and is
// read-only thereafter.
type Plan struct {
	raw    []string
	values []expreval.Value
	width  int
}

// Evaluate runs the evaluation pass over the template tokens.
//
// Tokens are evaluated in order and the expansion width starts at 1. Each
// sequence-valued token raises the running maximum, so a later token that
// references "n" observes the maximum sequence length discovered so far, not
// a global pre-scan. This ordering is part of the tool's contract; changing
// it would change what width-dependent expressions see.
func Evaluate(ctx context.Context, tokens []string) *Plan {
	logger := ctxlog.Logger(ctx)

	p := &Plan{
		raw:    append([]string(nil), tokens...),
		values: make([]expreval.Value, len(tokens)),
		width:  1,
	}

	for i, tok := range tokens {
		v, err := expreval.Evaluate(tok, p.width)
		if err != nil {
			// Not an error: most tokens are ordinary command words.
			logger.Debug("token is not an expression, using literally", "token", tok, "reason", err)

			p.values[i] = expreval.NewScalar(tok)

			continue
		}

		if v.IsSequence() && v.Len() == 0 {
			// An empty sequence cannot be aligned cyclically, so it
			// contributes an empty string in every command.
			logger.Debug("token evaluated to an empty sequence", "token", tok)

			p.values[i] = expreval.NewScalar("")

			continue
		}

		logger.Debug("evaluated token", "token", tok, "sequence", v.IsSequence(), "len", v.Len())

		p.values[i] = v

		if v.IsSequence() && v.Len() > p.width {
			p.width = v.Len()
		}
	}

	return p
}

// Width returns the expansion width: the number of commands the plan
// produces. It is always at least 1.
func (p *Plan) Width() int {
	return p.width
}

// Tokens returns the original raw template tokens.
func (p *Plan) Tokens() []string {
	return append([]string(nil), p.raw...)
}

// Commands returns a cursor over the generated commands. Each call returns a
// fresh cursor positioned at the start.
func (p *Plan) Commands() *Cursor {
	return &Cursor{plan: p}
}

// Cursor yields generated commands one at a time. It is finite and not
// restartable mid-iteration; obtain a new cursor from Plan.Commands to start
// over.
type Cursor struct {
	plan *Plan
	idx  int
}

// Next returns the next generated command. The second return value is false
// when the cursor is exhausted. A template with no tokens yields no commands.
func (c *Cursor) Next() (Command, bool) {
	if len(c.plan.raw) == 0 || c.idx >= c.plan.width {
		return nil, false
	}

	cmd := make(Command, len(c.plan.values))
	for i, v := range c.plan.values {
		cmd[i] = v.At(c.idx)
	}

	c.idx++

	return cmd, true
}

// All drains the cursor and returns the remaining commands.
func (c *Cursor) All() []Command {
	var out []Command

	for {
		cmd, ok := c.Next()
		if !ok {
			return out
		}

		out = append(out, cmd)
	}
}
