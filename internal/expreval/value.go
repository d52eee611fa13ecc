// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package expreval

import "strconv"

// Value is the result of evaluating a single template token. It is either a
// scalar string or an ordered sequence of strings.
type Value struct {
	seq    []string
	scalar string
	isSeq  bool
}

// NewScalar returns a scalar Value.
func NewScalar(s string) Value {
	return Value{scalar: s}
}

// NewSequence returns a sequence Value.
func NewSequence(elems []string) Value {
	return Value{seq: elems, isSeq: true}
}

// IsSequence reports whether the value is a sequence.
func (v Value) IsSequence() bool {
	return v.isSeq
}

// Scalar returns the scalar string. It is only meaningful when IsSequence is false.
func (v Value) Scalar() string {
	return v.scalar
}

// Len returns the number of elements in a sequence, or 1 for a scalar.
func (v Value) Len() int {
	if !v.isSeq {
		return 1
	}

	return len(v.seq)
}

// At returns the element at index i modulo the sequence length. For a scalar
// it returns the scalar regardless of i.
func (v Value) At(i int) string {
	if !v.isSeq {
		return v.scalar
	}

	return v.seq[i%len(v.seq)]
}

// Elements returns a copy of the sequence elements, or a single-element slice
// containing the scalar.
func (v Value) Elements() []string {
	if !v.isSeq {
		return []string{v.scalar}
	}

	out := make([]string, len(v.seq))
	copy(out, v.seq)

	return out
}

// result is the untyped evaluation result used inside the interpreter.
// Sequences hold integers only; they are stringified at the boundary.
type result struct {
	seq   []int64
	num   int64
	isSeq bool
}

func (r result) value() Value {
	if !r.isSeq {
		return NewScalar(strconv.FormatInt(r.num, 10))
	}

	elems := make([]string, len(r.seq))
	for i, n := range r.seq {
		elems[i] = strconv.FormatInt(n, 10)
	}

	return NewSequence(elems)
}
