package ops

import "github.com/born-ml/adcg/internal/graph"

// AddOp represents addition: y = a + b.
//
// Partials:
//   - dy/da = 1
//   - dy/db = 1
type AddOp struct{}

func (AddOp) Kind() graph.Kind { return graph.KindAdd }

func (AddOp) Arity() int { return 2 }

func (AddOp) Forward(args []float64) float64 { return args[0] + args[1] }

func (AddOp) Partials(_ []float64, _ float64) []float64 { return []float64{1, 1} }

func (AddOp) Curvature() Curvature { return Linear }

func (AddOp) Build(m *graph.Manager, args []graph.Value) graph.Value {
	return m.Add(args[0], args[1])
}
