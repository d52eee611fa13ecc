// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package expreval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateScalars(t *testing.T) {
	tests := []struct {
		name  string
		token string
		width int
		want  string
	}{
		{name: "integer literal", token: "42", width: 1, want: "42"},
		{name: "negative literal", token: "-7", width: 1, want: "-7"},
		{name: "width binding", token: "n", width: 5, want: "5"},
		{name: "addition", token: "1+2", width: 1, want: "3"},
		{name: "precedence", token: "1+2*3", width: 1, want: "7"},
		{name: "parentheses", token: "(1+2)*3", width: 1, want: "9"},
		{name: "division truncates", token: "7/2", width: 1, want: "3"},
		{name: "modulo", token: "7%3", width: 1, want: "1"},
		{name: "width arithmetic", token: "n*2+1", width: 4, want: "9"},
		{name: "whitespace tolerated", token: " 1 + 2 ", width: 1, want: "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Evaluate(tt.token, tt.width)
			require.NoError(t, err)
			assert.False(t, v.IsSequence(), "expected scalar")
			assert.Equal(t, tt.want, v.Scalar())
		})
	}
}

func TestEvaluateSequences(t *testing.T) {
	tests := []struct {
		name  string
		token string
		width int
		want  []string
	}{
		{name: "range one arg", token: "range(3)", width: 1, want: []string{"0", "1", "2"}},
		{name: "range start stop", token: "range(2,5)", width: 1, want: []string{"2", "3", "4"}},
		{name: "range with step", token: "range(0,10,3)", width: 1, want: []string{"0", "3", "6", "9"}},
		{name: "range descending", token: "range(3,0,-1)", width: 1, want: []string{"3", "2", "1"}},
		{name: "range empty", token: "range(0)", width: 1, want: []string{}},
		{name: "range empty when start past stop", token: "range(5,2)", width: 1, want: []string{}},
		{name: "range of width", token: "range(n)", width: 4, want: []string{"0", "1", "2", "3"}},
		{name: "repeat broadcasts scalar", token: "repeat(1,3)", width: 1, want: []string{"1", "1", "1"}},
		{name: "repeat of expression", token: "repeat(n*2,2)", width: 3, want: []string{"6", "6"}},
		{name: "repeat of sequence", token: "repeat(range(2),2)", width: 1, want: []string{"0", "0", "1", "1"}},
		{name: "repeat zero count", token: "repeat(1,0)", width: 1, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Evaluate(tt.token, tt.width)
			require.NoError(t, err)
			require.True(t, v.IsSequence(), "expected sequence")
			assert.Equal(t, tt.want, v.Elements())
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "plain word", token: "echo", wantErr: ErrUnknownName},
		{name: "unknown function", token: "seq(3)", wantErr: ErrUnknownName},
		{name: "bare range is not a value", token: "range", wantErr: ErrUnknownName},
		{name: "shell metacharacters", token: "$(rm -rf /)", wantErr: ErrSyntax},
		{name: "file path", token: "/tmp/file.txt", wantErr: ErrSyntax},
		{name: "trailing garbage", token: "1 2", wantErr: ErrSyntax},
		{name: "unclosed paren", token: "range(3", wantErr: ErrSyntax},
		{name: "range arity", token: "range()", wantErr: ErrArgument},
		{name: "range too many args", token: "range(1,2,3,4)", wantErr: ErrArgument},
		{name: "range zero step", token: "range(0,5,0)", wantErr: ErrArgument},
		{name: "repeat arity", token: "repeat(1)", wantErr: ErrArgument},
		{name: "repeat negative count", token: "repeat(1,-1)", wantErr: ErrArgument},
		{name: "repeat sequence count", token: "repeat(1,range(2))", wantErr: ErrType},
		{name: "sequence arithmetic", token: "range(3)+1", wantErr: ErrType},
		{name: "negated sequence", token: "-range(3)", wantErr: ErrType},
		{name: "divide by zero", token: "1/0", wantErr: ErrDivideByZero},
		{name: "modulo by zero", token: "1%0", wantErr: ErrDivideByZero},
		{name: "huge range", token: "range(99999999)", wantErr: ErrSequenceTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.token, 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEvaluateDeterminism(t *testing.T) {
	// The same token with the same width must always produce the same value.
	for range 10 {
		v, err := Evaluate("range(n+1)", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"0", "1", "2", "3"}, v.Elements())
	}
}

func TestValueAtCyclic(t *testing.T) {
	v := NewSequence([]string{"a", "b", "c"})

	assert.Equal(t, "a", v.At(0))
	assert.Equal(t, "b", v.At(4))
	assert.Equal(t, "c", v.At(5))

	s := NewScalar("x")
	assert.Equal(t, "x", s.At(17))
	assert.Equal(t, 1, s.Len())
}
