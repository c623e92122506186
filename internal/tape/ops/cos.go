package ops

import (
	"math"

	"github.com/born-ml/adcg/internal/graph"
)

// CosOp represents the cosine operation: y = cos(x).
type CosOp struct{}

func (CosOp) Kind() graph.Kind { return graph.KindCos }

func (CosOp) Arity() int { return 1 }

func (CosOp) Forward(args []float64) float64 { return math.Cos(args[0]) }

func (CosOp) Partials(args []float64, _ float64) []float64 {
	return []float64{-math.Sin(args[0])}
}

func (CosOp) Curvature() Curvature { return Nonlinear }

func (CosOp) Build(m *graph.Manager, args []graph.Value) graph.Value {
	return m.Cos(args[0])
}
