package ops

import "github.com/born-ml/adcg/internal/graph"

// NegOp represents negation: y = -a.
type NegOp struct{}

func (NegOp) Kind() graph.Kind { return graph.KindNeg }

func (NegOp) Arity() int { return 1 }

func (NegOp) Forward(args []float64) float64 { return -args[0] }

func (NegOp) Partials(_ []float64, _ float64) []float64 { return []float64{-1} }

func (NegOp) Curvature() Curvature { return Linear }

func (NegOp) Build(m *graph.Manager, args []graph.Value) graph.Value {
	return m.Neg(args[0])
}
