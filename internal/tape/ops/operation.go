// Package ops defines the elementary operations that can be recorded on a tape.
//
// Each operation provides:
//   - Forward: the numeric value of the operation
//   - Partials: the local derivatives used by the reverse sweep
//   - Curvature: how the operation couples its arguments in second order
//   - Build: the symbolic counterpart in a graph session
//
// Supported operations:
//   - AddOp, SubOp, NegOp: linear
//   - MulOp: bilinear (d²(a*b)/da db = 1)
//   - DivOp: quotient (nonlinear in the denominator only)
//   - SinOp, CosOp, ExpOp, LogOp, SqrtOp, TanhOp: nonlinear unary functions
package ops

import (
	"fmt"

	"github.com/born-ml/adcg/internal/graph"
)

// Curvature classifies the second order coupling of an operation's arguments.
type Curvature uint8

const (
	// Linear operations have no second derivatives.
	Linear Curvature = iota
	// Bilinear operations only couple distinct arguments.
	Bilinear
	// Quotient operations couple both arguments and the denominator with itself.
	Quotient
	// Nonlinear operations couple their single argument with itself.
	Nonlinear
)

// Operation represents an elementary operation recorded on a tape.
type Operation interface {
	// Kind returns the graph kind the operation is replayed as.
	Kind() graph.Kind

	// Arity returns the number of arguments.
	Arity() int

	// Forward computes the result from the argument values.
	Forward(args []float64) float64

	// Partials returns d(result)/d(arg) for each argument.
	//
	// Example for MulOp:
	//   args: [a, b]
	//   returns: [b, a]
	Partials(args []float64, result float64) []float64

	// Curvature reports the second order coupling of the arguments.
	Curvature() Curvature

	// Build creates the symbolic operation in a graph session.
	Build(m *graph.Manager, args []graph.Value) graph.Value
}

var byKind = map[graph.Kind]Operation{
	graph.KindAdd:  AddOp{},
	graph.KindSub:  SubOp{},
	graph.KindMul:  MulOp{},
	graph.KindDiv:  DivOp{},
	graph.KindNeg:  NegOp{},
	graph.KindSin:  SinOp{},
	graph.KindCos:  CosOp{},
	graph.KindExp:  ExpOp{},
	graph.KindLog:  LogOp{},
	graph.KindSqrt: SqrtOp{},
	graph.KindTanh: TanhOp{},
}

// ByKind returns the operation replayed as kind.
func ByKind(kind graph.Kind) (Operation, error) {
	op, ok := byKind[kind]
	if !ok {
		return nil, fmt.Errorf("ops: no elementary operation for kind %s", kind)
	}
	return op, nil
}

// Name returns a printable name of op.
func Name(op Operation) string {
	return op.Kind().String()
}
