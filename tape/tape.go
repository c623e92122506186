// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tape records scalar functions for code generation.
//
// Example:
//
//	rec := tape.NewRecorder()
//	x := rec.Independent(2)
//	y := rec.Mul(x[0], rec.Sin(x[1]))
//	f := rec.Dependent(y)
//
//	values, err := f.Forward([]float64{1.5, 0.4})
package tape

import (
	"github.com/born-ml/adcg/internal/tape"
	"github.com/born-ml/adcg/internal/tape/ops"
)

// Tape is an immutable recorded function from Domain independents to Range
// dependents.
type Tape = tape.Tape

// Recorder records operations into a new tape.
type Recorder = tape.Recorder

// Var is a recorded variable.
type Var = tape.Var

// Operation is an elementary operation of a tape.
type Operation = ops.Operation

// ErrSizeMismatch reports an input of the wrong length.
var ErrSizeMismatch = tape.ErrSizeMismatch

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return tape.NewRecorder()
}
