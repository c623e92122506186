package ops

import (
	"math"

	"github.com/born-ml/adcg/internal/graph"
)

// ExpOp represents the exponential: y = exp(x).
//
// The partial reuses the result: d(exp(x))/dx = y.
type ExpOp struct{}

func (ExpOp) Kind() graph.Kind { return graph.KindExp }

func (ExpOp) Arity() int { return 1 }

func (ExpOp) Forward(args []float64) float64 { return math.Exp(args[0]) }

func (ExpOp) Partials(_ []float64, result float64) []float64 {
	return []float64{result}
}

func (ExpOp) Curvature() Curvature { return Nonlinear }

func (ExpOp) Build(m *graph.Manager, args []graph.Value) graph.Value {
	return m.Exp(args[0])
}
