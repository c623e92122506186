package ops

import (
	"math"

	"github.com/born-ml/adcg/internal/graph"
)

// LogOp represents the natural logarithm: y = log(x).
type LogOp struct{}

func (LogOp) Kind() graph.Kind { return graph.KindLog }

func (LogOp) Arity() int { return 1 }

func (LogOp) Forward(args []float64) float64 { return math.Log(args[0]) }

func (LogOp) Partials(args []float64, _ float64) []float64 {
	return []float64{1 / args[0]}
}

func (LogOp) Curvature() Curvature { return Nonlinear }

func (LogOp) Build(m *graph.Manager, args []graph.Value) graph.Value {
	return m.Log(args[0])
}
