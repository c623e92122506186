package graph

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNotDifferentiable reports a reverse sweep reaching a control-flow node.
var ErrNotDifferentiable = errors.New("graph: node is not differentiable")

// Gradient returns dy/dv for every node v in wrt using a symbolic reverse
// sweep. The derivative expressions are new nodes of the same session.
//
// Nodes that are not arithmetic act as leaves. Panics with
// ErrNotDifferentiable if y depends on conditional nodes.
func (m *Manager) Gradient(y Value, wrt []NodeID) []Value {
	grad := make([]Value, len(wrt))
	if y.IsConstant() {
		return grad
	}

	reach := m.reachable(y.Node())
	adj := make(map[NodeID]Value, len(reach))
	adj[y.Node()] = Const(1)

	accumulate := func(arg Value, d Value) {
		if arg.IsConstant() || d.IsZero() {
			return
		}
		id := arg.Node()
		adj[id] = m.Add(adj[id], d)
	}

	for _, id := range reach {
		a := adj[id]
		if a.IsZero() {
			continue
		}
		n := m.nodes[id]
		self := Ref(id)
		switch n.Kind {
		case KindAdd:
			accumulate(n.Args[0], a)
			accumulate(n.Args[1], a)
		case KindSub:
			accumulate(n.Args[0], a)
			accumulate(n.Args[1], m.Neg(a))
		case KindMul:
			accumulate(n.Args[0], m.Mul(a, n.Args[1]))
			accumulate(n.Args[1], m.Mul(a, n.Args[0]))
		case KindDiv:
			// d(u/v)/du = 1/v, d(u/v)/dv = -(u/v)/v
			accumulate(n.Args[0], m.Div(a, n.Args[1]))
			accumulate(n.Args[1], m.Neg(m.Div(m.Mul(a, self), n.Args[1])))
		case KindNeg:
			accumulate(n.Args[0], m.Neg(a))
		case KindSin:
			accumulate(n.Args[0], m.Mul(a, m.Cos(n.Args[0])))
		case KindCos:
			accumulate(n.Args[0], m.Neg(m.Mul(a, m.Sin(n.Args[0]))))
		case KindExp:
			accumulate(n.Args[0], m.Mul(a, self))
		case KindLog:
			accumulate(n.Args[0], m.Div(a, n.Args[0]))
		case KindSqrt:
			accumulate(n.Args[0], m.Div(a, m.Mul(Const(2), self)))
		case KindTanh:
			accumulate(n.Args[0], m.Mul(a, m.Sub(Const(1), m.Mul(self, self))))
		}
	}

	for i, id := range wrt {
		grad[i] = adj[id]
	}
	return grad
}

// reachable returns the arithmetic closure of root in decreasing ID order,
// which is a valid reverse topological order.
func (m *Manager) reachable(root NodeID) []NodeID {
	seen := map[NodeID]bool{root: true}
	stack := []NodeID{root}
	var out []NodeID
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := m.nodes[id]
		switch {
		case n.Kind.IsArithmetic():
		case n.Kind <= KindIndexedInv:
			// leaves: independents and loop indices
		default:
			panic(fmt.Errorf("%w: %s (node %d)", ErrNotDifferentiable, n.Kind, id))
		}
		out = append(out, id)
		if !n.Kind.IsArithmetic() {
			continue
		}
		for _, a := range n.Args {
			if a.IsConstant() || seen[a.Node()] {
				continue
			}
			seen[a.Node()] = true
			stack = append(stack, a.Node())
		}
	}
	slices.Sort(out)
	slices.Reverse(out)
	return out
}
