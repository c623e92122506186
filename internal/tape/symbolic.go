package tape

import (
	"fmt"

	"github.com/born-ml/adcg/internal/graph"
)

// Replay records the tape into a graph session with x as independents and
// returns the dependent values.
func (t *Tape) Replay(m *graph.Manager, x []graph.Value) []graph.Value {
	values := t.replay(m, x)
	y := make([]graph.Value, len(t.dependents))
	for i, v := range t.dependents {
		y[i] = values[v]
	}
	return y
}

// SparseJacobian returns dy[rows[e]]/dx[cols[e]] for every requested entry.
//
// The independents x must be distinct leaf nodes of the session.
func (t *Tape) SparseJacobian(m *graph.Manager, x []graph.Value, rows, cols []int) []graph.Value {
	mustMatchEntries(rows, cols)
	wrt := leafIDs(x)
	y := t.Replay(m, x)

	grads := make(map[int][]graph.Value)
	jac := make([]graph.Value, len(rows))
	for e, i := range rows {
		g, ok := grads[i]
		if !ok {
			g = m.Gradient(y[i], wrt)
			grads[i] = g
		}
		jac[e] = g[cols[e]]
	}
	return jac
}

// SparseHessian returns the requested entries of sum_i w[i] * d²y[i]/dx².
//
// Each dependent with a nonzero weight is differentiated separately, so the
// weights may be any value of the session, including ones depending on x.
func (t *Tape) SparseHessian(m *graph.Manager, x, w []graph.Value, rows, cols []int) []graph.Value {
	mustMatchEntries(rows, cols)
	if len(w) != len(t.dependents) {
		panic(fmt.Errorf("%w: w has %d elements, want %d", ErrSizeMismatch, len(w), len(t.dependents)))
	}
	wrt := leafIDs(x)
	y := t.Replay(m, x)

	hess := make([]graph.Value, len(rows))
	for i, wi := range w {
		if wi.IsZero() {
			continue
		}
		g := m.Gradient(y[i], wrt)
		second := make(map[int][]graph.Value)
		for e, r := range rows {
			if g[r].IsConstant() {
				continue
			}
			h, ok := second[r]
			if !ok {
				h = m.Gradient(g[r], wrt)
				second[r] = h
			}
			hess[e] = m.Add(hess[e], m.Mul(wi, h[cols[e]]))
		}
	}
	return hess
}

func (t *Tape) replay(m *graph.Manager, x []graph.Value) []graph.Value {
	if len(x) != t.domain {
		panic(fmt.Errorf("%w: x has %d elements, want %d", ErrSizeMismatch, len(x), t.domain))
	}
	values := make([]graph.Value, len(t.instrs))
	args := make([]graph.Value, 0, 2)
	for v := range t.instrs {
		in := &t.instrs[v]
		switch in.kind {
		case instrIndependent:
			values[v] = x[in.index]
		case instrConstant:
			values[v] = graph.Const(in.value)
		case instrOperation:
			args = args[:0]
			for _, a := range in.args {
				args = append(args, values[a])
			}
			values[v] = in.op.Build(m, args)
		}
	}
	return values
}

func leafIDs(x []graph.Value) []graph.NodeID {
	ids := make([]graph.NodeID, len(x))
	seen := make(map[graph.NodeID]bool, len(x))
	for j, v := range x {
		if v.IsConstant() {
			panic(fmt.Sprintf("tape: independent %d is the constant %v", j, v))
		}
		id := v.Node()
		if seen[id] {
			panic(fmt.Sprintf("tape: independent %d repeats node v%d", j, id))
		}
		seen[id] = true
		ids[j] = id
	}
	return ids
}

func mustMatchEntries(rows, cols []int) {
	if len(rows) != len(cols) {
		panic(fmt.Errorf("%w: %d rows for %d columns", ErrSizeMismatch, len(rows), len(cols)))
	}
}
