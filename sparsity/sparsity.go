// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package sparsity provides the sparsity patterns of Jacobians and Hessians.
//
// A Pattern holds one sorted Set of column indexes per row.
package sparsity

import (
	"io"

	"github.com/born-ml/adcg/internal/sparsity"
)

// Set is a sorted set of indexes.
type Set = sparsity.Set

// Pattern is a sparsity pattern, one Set per row.
type Pattern = sparsity.Pattern

// NewSet creates a set from its elements in any order.
func NewSet(elems ...int) Set {
	return sparsity.NewSet(elems...)
}

// New creates an empty pattern with rows rows.
func New(rows int) Pattern {
	return sparsity.New(rows)
}

// Indexes lists the coordinates of the elements of p in row-major order.
func Indexes(p Pattern) (rows, cols []int) {
	return sparsity.Indexes(p)
}

// FromIndexes creates a pattern with rows rows from element coordinates.
func FromIndexes(rows, cols []int, n int) Pattern {
	return sparsity.FromIndexes(rows, cols, n)
}

// Transpose returns the cols×len(p) transpose of p.
func Transpose(p Pattern, cols int) Pattern {
	return sparsity.Transpose(p, len(p), cols)
}

// Union returns a ∪ b row by row.
func Union(a, b Pattern) Pattern {
	return sparsity.Union(a, b)
}

// MatMul returns the m×q pattern of A·B where A is m×n and B is n×q.
func MatMul(a, b Pattern, m, n, q int) Pattern {
	r := sparsity.New(m)
	sparsity.MatMul(a, b, r, m, n, q)
	return r
}

// MatTransMul returns the n×q pattern of Aᵗ·B where A is m×n and B is m×q.
func MatTransMul(a, b Pattern, m, n, q int) Pattern {
	r := sparsity.New(n)
	sparsity.MatTransMul(a, b, r, m, n, q)
	return r
}

// Print writes p in a human readable form.
func Print(w io.Writer, p Pattern, name string) error {
	return sparsity.Print(w, p, name)
}
