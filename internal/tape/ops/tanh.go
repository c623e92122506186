package ops

import (
	"math"

	"github.com/born-ml/adcg/internal/graph"
)

// TanhOp represents the hyperbolic tangent: y = tanh(x).
//
// d(tanh(x))/dx = 1 - y².
type TanhOp struct{}

func (TanhOp) Kind() graph.Kind { return graph.KindTanh }

func (TanhOp) Arity() int { return 1 }

func (TanhOp) Forward(args []float64) float64 { return math.Tanh(args[0]) }

func (TanhOp) Partials(_ []float64, result float64) []float64 {
	return []float64{1 - result*result}
}

func (TanhOp) Curvature() Curvature { return Nonlinear }

func (TanhOp) Build(m *graph.Manager, args []graph.Value) graph.Value {
	return m.Tanh(args[0])
}
