package graph

import "math"

// The arithmetic builders fold constants and trivial identities so that
// known zeros stay constants and never reach the generated code.

// Add returns a + b.
func (m *Manager) Add(a, b Value) Value {
	switch {
	case a.IsConstant() && b.IsConstant():
		return Const(a.constant + b.constant)
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	}
	a, b = commute(a, b)
	return Ref(m.MustCreate(KindAdd, []Value{a, b}, nil))
}

// Sub returns a - b.
func (m *Manager) Sub(a, b Value) Value {
	switch {
	case a.IsConstant() && b.IsConstant():
		return Const(a.constant - b.constant)
	case b.IsZero():
		return a
	case a.IsZero():
		return m.Neg(b)
	}
	return Ref(m.MustCreate(KindSub, []Value{a, b}, nil))
}

// Mul returns a * b.
func (m *Manager) Mul(a, b Value) Value {
	switch {
	case a.IsConstant() && b.IsConstant():
		return Const(a.constant * b.constant)
	case a.IsZero() || b.IsZero():
		return Const(0)
	case a.IsOne():
		return b
	case b.IsOne():
		return a
	}
	a, b = commute(a, b)
	return Ref(m.MustCreate(KindMul, []Value{a, b}, nil))
}

// Div returns a / b.
func (m *Manager) Div(a, b Value) Value {
	switch {
	case a.IsConstant() && b.IsConstant():
		return Const(a.constant / b.constant)
	case a.IsZero():
		return Const(0)
	case b.IsOne():
		return a
	}
	return Ref(m.MustCreate(KindDiv, []Value{a, b}, nil))
}

// Neg returns -a.
func (m *Manager) Neg(a Value) Value {
	if a.IsConstant() {
		return Const(-a.constant)
	}
	return Ref(m.MustCreate(KindNeg, []Value{a}, nil))
}

// Sin returns sin(a).
func (m *Manager) Sin(a Value) Value { return m.unary(KindSin, a, math.Sin) }

// Cos returns cos(a).
func (m *Manager) Cos(a Value) Value { return m.unary(KindCos, a, math.Cos) }

// Exp returns exp(a).
func (m *Manager) Exp(a Value) Value { return m.unary(KindExp, a, math.Exp) }

// Log returns log(a).
func (m *Manager) Log(a Value) Value { return m.unary(KindLog, a, math.Log) }

// Sqrt returns sqrt(a).
func (m *Manager) Sqrt(a Value) Value { return m.unary(KindSqrt, a, math.Sqrt) }

// Tanh returns tanh(a).
func (m *Manager) Tanh(a Value) Value { return m.unary(KindTanh, a, math.Tanh) }

// Apply builds an arithmetic node of the given kind.
// Panics if kind is not arithmetic or the argument count does not match.
func (m *Manager) Apply(kind Kind, args ...Value) Value {
	if !kind.IsArithmetic() || len(args) != kind.Arity() {
		panic("graph: Apply needs an arithmetic kind and matching arguments, got " + kind.String())
	}
	switch kind {
	case KindAdd:
		return m.Add(args[0], args[1])
	case KindSub:
		return m.Sub(args[0], args[1])
	case KindMul:
		return m.Mul(args[0], args[1])
	case KindDiv:
		return m.Div(args[0], args[1])
	case KindNeg:
		return m.Neg(args[0])
	case KindSin:
		return m.Sin(args[0])
	case KindCos:
		return m.Cos(args[0])
	case KindExp:
		return m.Exp(args[0])
	case KindLog:
		return m.Log(args[0])
	case KindSqrt:
		return m.Sqrt(args[0])
	default:
		return m.Tanh(args[0])
	}
}

// Sum returns the sum of all values.
func (m *Manager) Sum(values ...Value) Value {
	s := Const(0)
	for _, v := range values {
		s = m.Add(s, v)
	}
	return s
}

func (m *Manager) unary(kind Kind, a Value, f func(float64) float64) Value {
	if a.IsConstant() {
		return Const(f(a.constant))
	}
	return Ref(m.MustCreate(kind, []Value{a}, nil))
}

// commute orders the operands of commutative operations so that equal
// expressions written in a different order share one node.
func commute(a, b Value) (Value, Value) {
	if b.IsConstant() && !a.IsConstant() {
		return b, a
	}
	if !a.IsConstant() && !b.IsConstant() && b.node < a.node {
		return b, a
	}
	return a, b
}
