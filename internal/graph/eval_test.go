package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluator_IndexedValues(t *testing.T) {
	m := NewManager()
	idx := m.NewIndex()
	xi := m.IndexedVariable(ArrayX, idx, []int{2, 0, -1})
	wi := m.IndexedVariable(ArrayW, idx, []int{0, 1, 2})
	y := m.Mul(xi, wi)

	e := NewEvaluator(m)
	e.SetArray(ArrayX, []float64{10, 20, 30})
	e.SetArray(ArrayW, []float64{1, 2, 3})

	e.BindIndex(idx, 0)
	assert.Equal(t, 30.0, e.Eval(y))
	e.BindIndex(idx, 1)
	assert.Equal(t, 20.0, e.Eval(y))
	assert.Equal(t, 1.0, e.Eval(Ref(idx)))

	e.BindIndex(idx, 2)
	assert.Panics(t, func() { e.Eval(y) })
}

func TestEvaluator_UnboundIndex(t *testing.T) {
	m := NewManager()
	idx := m.NewIndex()
	e := NewEvaluator(m)
	assert.Panics(t, func() { e.Eval(Ref(idx)) })
}

func TestEvaluator_MissingArray(t *testing.T) {
	m := NewManager()
	x := m.Variable(ArrayX, 3)
	e := NewEvaluator(m)
	e.SetArray(ArrayX, []float64{1})
	assert.Panics(t, func() { e.Eval(x) })
}

func TestEvaluator_ConditionalFragment(t *testing.T) {
	m := NewManager()
	idx := m.NewIndex()
	x := m.Variable(ArrayX, 0)
	value := m.Mul(x, Ref(idx))

	cond := m.MustCreate(KindIndexCondExpr, []Value{Ref(idx)}, []int{0, 0, 2, 3})
	dcl := m.MustCreate(KindTmpDcl, nil, nil)
	start := m.MustCreate(KindStartIf, []Value{Ref(cond)}, nil)
	then := m.MustCreate(KindCondAssign, []Value{Ref(start), Ref(dcl), value}, nil)
	els := m.MustCreate(KindElse, []Value{Ref(start), Ref(then), Ref(dcl), Const(0)}, nil)
	end := m.MustCreate(KindEndIf, []Value{Ref(dcl), Ref(els)}, nil)

	e := NewEvaluator(m)
	e.SetArray(ArrayX, []float64{5})
	want := []float64{0, 0, 10, 15, 0}
	for it, w := range want {
		e.BindIndex(idx, it)
		require.Equal(t, w, e.Eval(Ref(end)), "iteration %d", it)
	}
}
