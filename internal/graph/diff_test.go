package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalAt(m *Manager, x []float64, v Value) float64 {
	e := NewEvaluator(m)
	e.SetArray(ArrayX, x)
	return e.Eval(v)
}

func ids(vs []Value) []NodeID {
	out := make([]NodeID, len(vs))
	for i, v := range vs {
		out[i] = v.Node()
	}
	return out
}

func TestGradient_FirstOrder(t *testing.T) {
	m := NewManager()
	x := m.Variables(ArrayX, 2)
	// y = x0*x1 + sin(x0)
	y := m.Add(m.Mul(x[0], x[1]), m.Sin(x[0]))

	g := m.Gradient(y, ids(x))
	require.Len(t, g, 2)

	pt := []float64{2, 3}
	assert.InDelta(t, 3+math.Cos(2), evalAt(m, pt, g[0]), 1e-12)
	assert.InDelta(t, 2, evalAt(m, pt, g[1]), 1e-12)
}

func TestGradient_SecondOrder(t *testing.T) {
	m := NewManager()
	x := m.Variables(ArrayX, 2)
	y := m.Add(m.Mul(x[0], x[1]), m.Sin(x[0]))
	g := m.Gradient(y, ids(x))

	h0 := m.Gradient(g[0], ids(x))
	h1 := m.Gradient(g[1], ids(x))

	pt := []float64{0.7, -1.3}
	assert.InDelta(t, -math.Sin(0.7), evalAt(m, pt, h0[0]), 1e-12)
	assert.InDelta(t, 1, evalAt(m, pt, h0[1]), 1e-12)
	assert.InDelta(t, 1, evalAt(m, pt, h1[0]), 1e-12)
	assert.True(t, h1[1].IsZero())
}

func TestGradient_ElementaryRules(t *testing.T) {
	pt := []float64{0.8, 1.9}
	tests := []struct {
		name  string
		build func(m *Manager, x []Value) Value
		d0    float64
		d1    float64
	}{
		{"sub", func(m *Manager, x []Value) Value { return m.Sub(x[0], x[1]) }, 1, -1},
		{"div", func(m *Manager, x []Value) Value { return m.Div(x[0], x[1]) }, 1 / 1.9, -0.8 / (1.9 * 1.9)},
		{"neg", func(m *Manager, x []Value) Value { return m.Neg(x[1]) }, 0, -1},
		{"cos", func(m *Manager, x []Value) Value { return m.Cos(x[0]) }, -math.Sin(0.8), 0},
		{"exp", func(m *Manager, x []Value) Value { return m.Exp(x[1]) }, 0, math.Exp(1.9)},
		{"log", func(m *Manager, x []Value) Value { return m.Log(x[0]) }, 1 / 0.8, 0},
		{"sqrt", func(m *Manager, x []Value) Value { return m.Sqrt(x[1]) }, 0, 0.5 / math.Sqrt(1.9)},
		{"tanh", func(m *Manager, x []Value) Value { return m.Tanh(x[0]) }, 1 - math.Tanh(0.8)*math.Tanh(0.8), 0},
		{"shared subexpression", func(m *Manager, x []Value) Value {
			s := m.Mul(x[0], x[1])
			return m.Mul(s, s)
		}, 2 * 0.8 * 1.9 * 1.9, 2 * 1.9 * 0.8 * 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			x := m.Variables(ArrayX, 2)
			g := m.Gradient(tt.build(m, x), ids(x))
			assert.InDelta(t, tt.d0, evalAt(m, pt, g[0]), 1e-12)
			assert.InDelta(t, tt.d1, evalAt(m, pt, g[1]), 1e-12)
		})
	}
}

func TestGradient_ConstantOutput(t *testing.T) {
	m := NewManager()
	x := m.Variables(ArrayX, 2)
	g := m.Gradient(Const(4), ids(x))
	assert.True(t, g[0].IsZero())
	assert.True(t, g[1].IsZero())
}

func TestGradient_PanicsOnConditional(t *testing.T) {
	m := NewManager()
	x := m.Variable(ArrayX, 0)
	cond := m.MustCreate(KindStartIf, []Value{x}, nil)
	y := m.Mul(Ref(cond), x)
	assert.Panics(t, func() { m.Gradient(y, []NodeID{x.Node()}) })
}
