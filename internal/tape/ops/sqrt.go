package ops

import (
	"math"

	"github.com/born-ml/adcg/internal/graph"
)

// SqrtOp represents the square root: y = sqrt(x).
//
// d(sqrt(x))/dx = 1 / (2*y).
type SqrtOp struct{}

func (SqrtOp) Kind() graph.Kind { return graph.KindSqrt }

func (SqrtOp) Arity() int { return 1 }

func (SqrtOp) Forward(args []float64) float64 { return math.Sqrt(args[0]) }

func (SqrtOp) Partials(_ []float64, result float64) []float64 {
	return []float64{1 / (2 * result)}
}

func (SqrtOp) Curvature() Curvature { return Nonlinear }

func (SqrtOp) Build(m *graph.Manager, args []graph.Value) graph.Value {
	return m.Sqrt(args[0])
}
