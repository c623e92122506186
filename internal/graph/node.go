// Package graph implements the symbolic operation graph used for derivative
// code generation.
//
// All nodes of one code-generation session live in a single arena owned by a
// Manager. Nodes reference their arguments by arena index, and an argument can
// only reference a node created before it, so creation order is always a
// topological order of the DAG.
package graph

import "fmt"

// NodeID identifies a node inside its Manager's arena.
type NodeID int

// Kind is the operation performed by a node.
type Kind uint8

// Node kinds.
const (
	KindInv        Kind = iota // independent variable: Info = [array, element]
	KindAdd                    // a + b
	KindSub                    // a - b
	KindMul                    // a * b
	KindDiv                    // a / b
	KindNeg                    // -a
	KindSin                    // sin(a)
	KindCos                    // cos(a)
	KindExp                    // exp(a)
	KindLog                    // log(a)
	KindSqrt                   // sqrt(a)
	KindTanh                   // tanh(a)
	KindIndex                  // loop iteration index: Info = [loop]
	KindIndexedInv             // loop-indexed independent: Args = [index], Info = [array, elem(it0), elem(it1), ...]
	KindIndexCondExpr          // index membership test: Args = [index], Info = inclusive ranges [lo0, hi0, lo1, hi1, ...]
	KindTmpDcl                 // temporary variable declaration
	KindStartIf                // Args = [condition]
	KindCondAssign             // then-branch assignment: Args = [startIf, tmpDcl, value]
	KindElse                   // else branch with its assignment: Args = [startIf, condAssign, tmpDcl, value]
	KindEndIf                  // closes the conditional, value is the merged temporary: Args = [tmpDcl, else]
)

var kindNames = [...]string{
	KindInv:           "inv",
	KindAdd:           "add",
	KindSub:           "sub",
	KindMul:           "mul",
	KindDiv:           "div",
	KindNeg:           "neg",
	KindSin:           "sin",
	KindCos:           "cos",
	KindExp:           "exp",
	KindLog:           "log",
	KindSqrt:          "sqrt",
	KindTanh:          "tanh",
	KindIndex:         "index",
	KindIndexedInv:    "indexed_inv",
	KindIndexCondExpr: "index_cond",
	KindTmpDcl:        "tmp_dcl",
	KindStartIf:       "start_if",
	KindCondAssign:    "cond_assign",
	KindElse:          "else",
	KindEndIf:         "end_if",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Arity returns the number of arguments required by the kind, or -1 when the
// kind does not constrain it.
func (k Kind) Arity() int {
	switch k {
	case KindInv, KindTmpDcl, KindIndex:
		return 0
	case KindAdd, KindSub, KindMul, KindDiv:
		return 2
	case KindNeg, KindSin, KindCos, KindExp, KindLog, KindSqrt, KindTanh,
		KindIndexedInv, KindIndexCondExpr, KindStartIf:
		return 1
	case KindCondAssign:
		return 3
	case KindElse:
		return 4
	case KindEndIf:
		return 2
	}
	return -1
}

// IsArithmetic reports whether the kind is an elementary arithmetic operation.
func (k Kind) IsArithmetic() bool {
	return k >= KindAdd && k <= KindTanh
}

// IsPure reports whether two nodes with equal kind, arguments and info are
// interchangeable. Only pure nodes are shared by the Manager.
func (k Kind) IsPure() bool {
	return k <= KindIndexCondExpr && k != KindIndex
}

// Array identifies an input array of a generated model.
type Array int

// Input arrays.
const (
	ArrayX Array = iota // independent variables
	ArrayW              // Hessian weights
	ArrayZ              // temporaries computed outside loops
)

// String returns the conventional array name.
func (a Array) String() string {
	switch a {
	case ArrayX:
		return "x"
	case ArrayW:
		return "w"
	case ArrayZ:
		return "z"
	}
	return fmt.Sprintf("array%d", int(a))
}

// Node is one operation of the graph.
type Node struct {
	Kind  Kind
	Args  []Value
	Info  []int
	Usage int // number of references from other nodes
}

// NewNode allocates a node outside of any Manager. It must be handed to
// Manager.ManageNode before it can be referenced.
func NewNode(kind Kind, args []Value, info []int) *Node {
	return &Node{Kind: kind, Args: args, Info: info}
}

// Arg returns the i-th argument.
func (n *Node) Arg(i int) Value {
	return n.Args[i]
}
