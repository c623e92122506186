package ops

import "github.com/born-ml/adcg/internal/graph"

// SubOp represents subtraction: y = a - b.
type SubOp struct{}

func (SubOp) Kind() graph.Kind { return graph.KindSub }

func (SubOp) Arity() int { return 2 }

func (SubOp) Forward(args []float64) float64 { return args[0] - args[1] }

func (SubOp) Partials(_ []float64, _ float64) []float64 { return []float64{1, -1} }

func (SubOp) Curvature() Curvature { return Linear }

func (SubOp) Build(m *graph.Manager, args []graph.Value) graph.Value {
	return m.Sub(args[0], args[1])
}
