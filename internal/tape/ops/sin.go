package ops

import (
	"math"

	"github.com/born-ml/adcg/internal/graph"
)

// SinOp represents the sine operation: y = sin(x).
//
// Since d(sin(x))/dx = cos(x), the partial is cos(input).
type SinOp struct{}

func (SinOp) Kind() graph.Kind { return graph.KindSin }

func (SinOp) Arity() int { return 1 }

func (SinOp) Forward(args []float64) float64 { return math.Sin(args[0]) }

func (SinOp) Partials(args []float64, _ float64) []float64 {
	return []float64{math.Cos(args[0])}
}

func (SinOp) Curvature() Curvature { return Nonlinear }

func (SinOp) Build(m *graph.Manager, args []graph.Value) graph.Value {
	return m.Sin(args[0])
}
