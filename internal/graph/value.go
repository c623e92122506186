package graph

import (
	"fmt"
	"strconv"
)

// Value is a symbolic scalar: either a known constant or a reference to a
// node owned by a Manager.
//
// The zero Value is the constant 0. A reference never owns its node; the node
// lives as long as the Manager session that created it.
type Value struct {
	ref      bool
	constant float64
	node     NodeID
}

// Const creates a constant value.
func Const(v float64) Value {
	return Value{constant: v}
}

// Ref creates a value referencing a graph node.
func Ref(id NodeID) Value {
	return Value{ref: true, node: id}
}

// IsConstant reports whether the value is a known constant.
func (v Value) IsConstant() bool {
	return !v.ref
}

// IsZero reports whether the value is the constant 0.
func (v Value) IsZero() bool {
	return !v.ref && v.constant == 0
}

// IsOne reports whether the value is the constant 1.
func (v Value) IsOne() bool {
	return !v.ref && v.constant == 1
}

// Constant returns the constant held by the value.
// Panics if the value references a node.
func (v Value) Constant() float64 {
	if v.ref {
		panic(fmt.Sprintf("graph: value references node %d, not a constant", v.node))
	}
	return v.constant
}

// Node returns the referenced node.
// Panics if the value is a constant.
func (v Value) Node() NodeID {
	if !v.ref {
		panic("graph: constant value has no node")
	}
	return v.node
}

// String formats constants by value and references as vN.
func (v Value) String() string {
	if v.ref {
		return "v" + strconv.Itoa(int(v.node))
	}
	return strconv.FormatFloat(v.constant, 'g', -1, 64)
}
