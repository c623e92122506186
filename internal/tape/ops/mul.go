package ops

import "github.com/born-ml/adcg/internal/graph"

// MulOp represents multiplication: y = a * b.
//
// Partials:
//   - dy/da = b
//   - dy/db = a
type MulOp struct{}

func (MulOp) Kind() graph.Kind { return graph.KindMul }

func (MulOp) Arity() int { return 2 }

func (MulOp) Forward(args []float64) float64 { return args[0] * args[1] }

func (MulOp) Partials(args []float64, _ float64) []float64 {
	return []float64{args[1], args[0]}
}

func (MulOp) Curvature() Curvature { return Bilinear }

func (MulOp) Build(m *graph.Manager, args []graph.Value) graph.Value {
	return m.Mul(args[0], args[1])
}
