// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package expreval

import (
	"fmt"
	"unicode"
)

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenIdent
	tokenLParen
	tokenRParen
	tokenComma
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPercent
	tokenEOF
)

type lexToken struct {
	text string
	kind tokenKind
	pos  int
}

// lex splits the input into tokens. Any rune outside the language alphabet is
// a lex error, which callers turn into literal-scalar degradation.
func lex(input string) ([]lexToken, error) {
	var tokens []lexToken

	runes := []rune(input)

	i := 0
	for i < len(runes) {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}

			tokens = append(tokens, lexToken{kind: tokenNumber, text: string(runes[start:i]), pos: start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}

			tokens = append(tokens, lexToken{kind: tokenIdent, text: string(runes[start:i]), pos: start})
		default:
			kind, ok := punctKind(r)
			if !ok {
				return nil, fmt.Errorf("%w: unexpected character %q at position %d", ErrSyntax, r, i)
			}

			tokens = append(tokens, lexToken{kind: kind, text: string(r), pos: i})
			i++
		}
	}

	tokens = append(tokens, lexToken{kind: tokenEOF, pos: len(runes)})

	return tokens, nil
}

func punctKind(r rune) (tokenKind, bool) {
	switch r {
	case '(':
		return tokenLParen, true
	case ')':
		return tokenRParen, true
	case ',':
		return tokenComma, true
	case '+':
		return tokenPlus, true
	case '-':
		return tokenMinus, true
	case '*':
		return tokenStar, true
	case '/':
		return tokenSlash, true
	case '%':
		return tokenPercent, true
	default:
		return 0, false
	}
}
