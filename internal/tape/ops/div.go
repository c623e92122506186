package ops

import "github.com/born-ml/adcg/internal/graph"

// DivOp represents division: y = a / b.
//
// Partials:
//   - dy/da = 1/b
//   - dy/db = -y/b
type DivOp struct{}

func (DivOp) Kind() graph.Kind { return graph.KindDiv }

func (DivOp) Arity() int { return 2 }

func (DivOp) Forward(args []float64) float64 { return args[0] / args[1] }

func (DivOp) Partials(args []float64, result float64) []float64 {
	return []float64{1 / args[1], -result / args[1]}
}

func (DivOp) Curvature() Curvature { return Quotient }

func (DivOp) Build(m *graph.Manager, args []graph.Value) graph.Value {
	return m.Div(args[0], args[1])
}
