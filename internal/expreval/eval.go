// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package expreval

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	rangeMaxArgs  = 3
	repeatArgs    = 2
	maxSequenceLn = 1 << 20 // upper bound on generated sequence length
)

var (
	// ErrSyntax is returned when the token cannot be lexed or parsed.
	ErrSyntax = errors.New("syntax error")
	// ErrUnknownName is returned when an identifier other than the sandbox bindings is referenced.
	ErrUnknownName = errors.New("unknown name")
	// ErrType is returned when an operation is applied to an operand of the wrong kind.
	ErrType = errors.New("type error")
	// ErrArgument is returned when a constructor is called with bad arguments.
	ErrArgument = errors.New("argument error")
	// ErrDivideByZero is returned on division or modulo by zero.
	ErrDivideByZero = errors.New("division by zero")
	// ErrSequenceTooLong is returned when a constructor would produce an unreasonably large sequence.
	ErrSequenceTooLong = fmt.Errorf("sequence exceeds %d elements", maxSequenceLn)
)

// Evaluate interprets token as a sandbox expression with the given expansion
// width bound to "n". On any error the caller should treat the token as a
// literal scalar.
func Evaluate(token string, width int) (Value, error) {
	tokens, err := lex(token)
	if err != nil {
		return Value{}, err
	}

	p := &parser{tokens: tokens, width: int64(width)}

	res, err := p.parseExpr()
	if err != nil {
		return Value{}, err
	}

	if p.peek().kind != tokenEOF {
		return Value{}, fmt.Errorf("%w: unexpected %q at position %d", ErrSyntax, p.peek().text, p.peek().pos)
	}

	return res.value(), nil
}

// parser is a recursive-descent parser that evaluates as it parses. The
// grammar is small enough that a separate AST buys nothing.
type parser struct {
	tokens []lexToken
	pos    int
	width  int64
}

func (p *parser) peek() lexToken {
	return p.tokens[p.pos]
}

func (p *parser) next() lexToken {
	t := p.tokens[p.pos]
	p.pos++

	return t
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.peek().kind != kind {
		return fmt.Errorf("%w: expected %s at position %d", ErrSyntax, what, p.peek().pos)
	}

	p.next()

	return nil
}

// parseExpr handles + and -.
func (p *parser) parseExpr() (result, error) {
	left, err := p.parseTerm()
	if err != nil {
		return result{}, err
	}

	for {
		switch p.peek().kind {
		case tokenPlus, tokenMinus:
			op := p.next()

			right, err := p.parseTerm()
			if err != nil {
				return result{}, err
			}

			left, err = applyArith(op, left, right)
			if err != nil {
				return result{}, err
			}
		default:
			return left, nil
		}
	}
}

// parseTerm handles *, / and %.
func (p *parser) parseTerm() (result, error) {
	left, err := p.parseUnary()
	if err != nil {
		return result{}, err
	}

	for {
		switch p.peek().kind {
		case tokenStar, tokenSlash, tokenPercent:
			op := p.next()

			right, err := p.parseUnary()
			if err != nil {
				return result{}, err
			}

			left, err = applyArith(op, left, right)
			if err != nil {
				return result{}, err
			}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (result, error) {
	if p.peek().kind == tokenMinus {
		p.next()

		operand, err := p.parseUnary()
		if err != nil {
			return result{}, err
		}

		if operand.isSeq {
			return result{}, fmt.Errorf("%w: cannot negate a sequence", ErrType)
		}

		return result{num: -operand.num}, nil
	}

	return p.parsePrimary()
}

func (p *parser) parsePrimary() (result, error) {
	tok := p.next()

	switch tok.kind {
	case tokenNumber:
		n, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return result{}, fmt.Errorf("%w: bad integer literal %q", ErrSyntax, tok.text)
		}

		return result{num: n}, nil

	case tokenLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return result{}, err
		}

		if err := p.expect(tokenRParen, `")"`); err != nil {
			return result{}, err
		}

		return inner, nil

	case tokenIdent:
		if p.peek().kind == tokenLParen {
			return p.parseCall(tok)
		}

		if tok.text == "n" {
			return result{num: p.width}, nil
		}

		return result{}, fmt.Errorf("%w: %q", ErrUnknownName, tok.text)

	default:
		return result{}, fmt.Errorf("%w: unexpected %q at position %d", ErrSyntax, tok.text, tok.pos)
	}
}

func (p *parser) parseCall(ident lexToken) (result, error) {
	p.next() // consume "("

	var args []result

	if p.peek().kind != tokenRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return result{}, err
			}

			args = append(args, arg)

			if p.peek().kind != tokenComma {
				break
			}

			p.next()
		}
	}

	if err := p.expect(tokenRParen, `")"`); err != nil {
		return result{}, err
	}

	switch ident.text {
	case "range":
		return evalRange(args)
	case "repeat":
		return evalRepeat(args)
	default:
		return result{}, fmt.Errorf("%w: %q", ErrUnknownName, ident.text)
	}
}

func applyArith(op lexToken, left, right result) (result, error) {
	if left.isSeq || right.isSeq {
		return result{}, fmt.Errorf("%w: arithmetic requires integer operands", ErrType)
	}

	switch op.kind {
	case tokenPlus:
		return result{num: left.num + right.num}, nil
	case tokenMinus:
		return result{num: left.num - right.num}, nil
	case tokenStar:
		return result{num: left.num * right.num}, nil
	case tokenSlash:
		if right.num == 0 {
			return result{}, ErrDivideByZero
		}

		return result{num: left.num / right.num}, nil
	case tokenPercent:
		if right.num == 0 {
			return result{}, ErrDivideByZero
		}

		return result{num: left.num % right.num}, nil
	default:
		return result{}, fmt.Errorf("%w: unexpected operator %q", ErrSyntax, op.text)
	}
}

// evalRange implements the half-open range constructor with 1-3 arguments.
func evalRange(args []result) (result, error) {
	if len(args) == 0 || len(args) > rangeMaxArgs {
		return result{}, fmt.Errorf("%w: range takes 1 to %d arguments, got %d", ErrArgument, rangeMaxArgs, len(args))
	}

	for _, a := range args {
		if a.isSeq {
			return result{}, fmt.Errorf("%w: range arguments must be integers", ErrType)
		}
	}

	var start, stop, step int64

	step = 1

	switch len(args) {
	case 1:
		stop = args[0].num
	case 2:
		start, stop = args[0].num, args[1].num
	case rangeMaxArgs:
		start, stop, step = args[0].num, args[1].num, args[2].num
	}

	if step == 0 {
		return result{}, fmt.Errorf("%w: range step must not be zero", ErrArgument)
	}

	var length int64

	switch {
	case step > 0 && start < stop:
		length = (stop - start + step - 1) / step
	case step < 0 && start > stop:
		length = (start - stop - step - 1) / -step
	}

	if length > maxSequenceLn {
		return result{}, ErrSequenceTooLong
	}

	seq := make([]int64, 0, length)
	for v := start; int64(len(seq)) < length; v += step {
		seq = append(seq, v)
	}

	return result{seq: seq, isSeq: true}, nil
}

// evalRepeat implements the repeat/broadcast constructor. A scalar first
// argument is broadcast count times; a sequence first argument has each of
// its elements repeated count times, preserving order.
func evalRepeat(args []result) (result, error) {
	if len(args) != repeatArgs {
		return result{}, fmt.Errorf("%w: repeat takes %d arguments, got %d", ErrArgument, repeatArgs, len(args))
	}

	if args[1].isSeq {
		return result{}, fmt.Errorf("%w: repeat count must be an integer", ErrType)
	}

	count := args[1].num
	if count < 0 {
		return result{}, fmt.Errorf("%w: repeat count must not be negative", ErrArgument)
	}

	src := []int64{args[0].num}
	if args[0].isSeq {
		src = args[0].seq
	}

	total := int64(len(src)) * count
	if total > maxSequenceLn {
		return result{}, ErrSequenceTooLong
	}

	seq := make([]int64, 0, total)

	for _, v := range src {
		for i := int64(0); i < count; i++ {
			seq = append(seq, v)
		}
	}

	return result{seq: seq, isSeq: true}, nil
}
