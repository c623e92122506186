package graph

import (
	"fmt"
	"math"
)

// Evaluator computes numeric values of graph nodes.
//
// Input arrays and loop indices are bound before evaluation. Values that do
// not depend on a loop index are cached across iterations; conditional
// fragments only evaluate the branch selected by their condition.
type Evaluator struct {
	m        *Manager
	arrays   map[Array][]float64
	indices  map[NodeID]int
	memo     map[NodeID]float64
	iterMemo map[NodeID]float64
	indexed  map[NodeID]bool
}

// NewEvaluator creates an evaluator for the nodes of m.
func NewEvaluator(m *Manager) *Evaluator {
	return &Evaluator{
		m:        m,
		arrays:   make(map[Array][]float64),
		indices:  make(map[NodeID]int),
		memo:     make(map[NodeID]float64),
		iterMemo: make(map[NodeID]float64),
		indexed:  make(map[NodeID]bool),
	}
}

// SetArray binds the values of an input array and drops cached results.
func (e *Evaluator) SetArray(a Array, values []float64) {
	e.arrays[a] = values
	clear(e.memo)
	clear(e.iterMemo)
}

// BindIndex sets the current iteration of a loop index.
func (e *Evaluator) BindIndex(index NodeID, iteration int) {
	e.indices[index] = iteration
	clear(e.iterMemo)
}

// Eval returns the numeric value of v.
func (e *Evaluator) Eval(v Value) float64 {
	if v.IsConstant() {
		return v.Constant()
	}
	return e.node(v.Node())
}

func (e *Evaluator) node(id NodeID) float64 {
	cache := e.memo
	if e.dependsOnIndex(id) {
		cache = e.iterMemo
	}
	if r, ok := cache[id]; ok {
		return r
	}
	r := e.compute(id)
	cache[id] = r
	return r
}

func (e *Evaluator) compute(id NodeID) float64 {
	n := e.m.Node(id)
	switch n.Kind {
	case KindInv:
		return e.element(Array(n.Info[0]), n.Info[1])
	case KindIndex:
		return float64(e.iteration(id))
	case KindIndexedInv:
		it := e.iteration(n.Args[0].Node())
		elem := n.Info[1+it]
		if elem < 0 {
			panic(fmt.Sprintf("graph: indexed independent %d has no element at iteration %d", id, it))
		}
		return e.element(Array(n.Info[0]), elem)
	case KindIndexCondExpr:
		it := e.iteration(n.Args[0].Node())
		for r := 0; r+1 < len(n.Info); r += 2 {
			if it >= n.Info[r] && it <= n.Info[r+1] {
				return 1
			}
		}
		return 0
	case KindTmpDcl:
		return 0
	case KindStartIf:
		return e.Eval(n.Args[0])
	case KindCondAssign:
		return e.Eval(n.Args[2])
	case KindElse:
		return e.Eval(n.Args[3])
	case KindEndIf:
		elseNode := e.m.Node(n.Args[1].Node())
		if e.Eval(elseNode.Args[0]) != 0 {
			return e.Eval(e.m.Node(elseNode.Args[1].Node()).Args[2])
		}
		return e.Eval(elseNode.Args[3])
	}

	a := e.Eval(n.Args[0])
	switch n.Kind {
	case KindAdd:
		return a + e.Eval(n.Args[1])
	case KindSub:
		return a - e.Eval(n.Args[1])
	case KindMul:
		return a * e.Eval(n.Args[1])
	case KindDiv:
		return a / e.Eval(n.Args[1])
	case KindNeg:
		return -a
	case KindSin:
		return math.Sin(a)
	case KindCos:
		return math.Cos(a)
	case KindExp:
		return math.Exp(a)
	case KindLog:
		return math.Log(a)
	case KindSqrt:
		return math.Sqrt(a)
	case KindTanh:
		return math.Tanh(a)
	}
	panic(fmt.Sprintf("graph: cannot evaluate %s node %d", n.Kind, id))
}

func (e *Evaluator) element(a Array, i int) float64 {
	values := e.arrays[a]
	if i < 0 || i >= len(values) {
		panic(fmt.Sprintf("graph: %s[%d] out of range (len %d)", a, i, len(values)))
	}
	return values[i]
}

func (e *Evaluator) iteration(index NodeID) int {
	it, ok := e.indices[index]
	if !ok {
		panic(fmt.Sprintf("graph: loop index %d is not bound", index))
	}
	return it
}

func (e *Evaluator) dependsOnIndex(id NodeID) bool {
	if d, ok := e.indexed[id]; ok {
		return d
	}
	n := e.m.Node(id)
	d := n.Kind == KindIndex
	for _, a := range n.Args {
		if d {
			break
		}
		if !a.IsConstant() {
			d = e.dependsOnIndex(a.Node())
		}
	}
	e.indexed[id] = d
	return d
}
