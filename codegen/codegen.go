// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package codegen generates the zero order, sparse Jacobian and sparse
// Hessian functions of a recorded tape and evaluates them.
//
// Structurally repeated equations, named through related dependent sets,
// are differentiated once and evaluated inside index-parameterized loops.
//
// Example:
//
//	gen := codegen.New(codegen.Options{
//	    Jacobian:          true,
//	    Hessian:           true,
//	    RelatedDependents: [][]int{{0, 2, 4}, {1, 3, 5}},
//	})
//	res, err := gen.Generate(f)
//	if err != nil {
//	    return err
//	}
//	m, err := codegen.Compile(res)
//	jac, rows, cols, err := m.SparseJacobian(x)
package codegen

import (
	"github.com/born-ml/adcg/internal/codegen"
	"github.com/born-ml/adcg/internal/model"
	"github.com/born-ml/adcg/internal/tape"
)

// Options configures a Generator.
type Options = codegen.Options

// Generator creates the symbolic functions of tapes.
type Generator = codegen.Generator

// Result holds the functions built by one Generate call.
type Result = codegen.Result

// Model evaluates a Result.
type Model = model.Model

// Errors returned by Generate and Compile.
var (
	ErrNilTape        = codegen.ErrNilTape
	ErrInvalidPattern = codegen.ErrInvalidPattern
	ErrNotGenerated   = model.ErrNotGenerated
)

// New creates a generator.
func New(opts Options) *Generator {
	return codegen.New(opts)
}

// Generate is shorthand for New(opts).Generate(f).
func Generate(f *tape.Tape, opts Options) (*Result, error) {
	return codegen.New(opts).Generate(f)
}

// Compile prepares a result for evaluation.
func Compile(res *Result, opts ...model.Option) (*Model, error) {
	return model.Compile(res, opts...)
}
