package graph

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
)

// Sentinel errors.
var (
	// ErrInvalidReference reports an argument that does not reference an
	// earlier node of the same Manager.
	ErrInvalidReference = errors.New("graph: invalid node reference")

	// ErrInvalidArity reports a node created with the wrong number of arguments.
	ErrInvalidArity = errors.New("graph: invalid number of arguments")
)

// Manager owns every node of one code-generation session.
//
// Nodes are stored in an arena and identified by their index. Pure nodes
// (see Kind.IsPure) are shared: creating a pure node equal to an existing one
// returns the existing ID. A Manager is not safe for concurrent use.
type Manager struct {
	nodes  []*Node
	shared map[string]NodeID
	loops  int
}

// NewManager creates an empty session.
func NewManager() *Manager {
	return &Manager{
		nodes:  make([]*Node, 0, 256),
		shared: make(map[string]NodeID),
	}
}

// Len returns the number of nodes in the arena.
func (m *Manager) Len() int {
	return len(m.nodes)
}

// Node returns the node with the given ID.
// Panics if the ID does not belong to this Manager.
func (m *Manager) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(m.nodes) {
		panic(fmt.Sprintf("graph: node %d outside of session (%d nodes)", id, len(m.nodes)))
	}
	return m.nodes[id]
}

// Nodes iterates over the arena in creation order, which is a topological
// order.
func (m *Manager) Nodes() iter.Seq2[NodeID, *Node] {
	return func(yield func(NodeID, *Node) bool) {
		for i, n := range m.nodes {
			if !yield(NodeID(i), n) {
				return
			}
		}
	}
}

// Kind returns the kind of the node referenced by v, and false for constants.
func (m *Manager) Kind(v Value) (Kind, bool) {
	if v.IsConstant() {
		return 0, false
	}
	return m.Node(v.Node()).Kind, true
}

// CreateNode allocates and registers a node.
func (m *Manager) CreateNode(kind Kind, args []Value, info []int) (NodeID, error) {
	return m.ManageNode(NewNode(kind, args, info))
}

// MustCreate is like CreateNode but panics on invalid arguments.
// It is meant for internal callers whose arguments come from this session.
func (m *Manager) MustCreate(kind Kind, args []Value, info []int) NodeID {
	id, err := m.CreateNode(kind, args, info)
	if err != nil {
		panic(err)
	}
	return id
}

// ManageNode takes ownership of a node allocated outside the Manager and
// registers it in the arena. If the node is pure and an equal node already
// exists, the existing ID is returned and n is discarded.
func (m *Manager) ManageNode(n *Node) (NodeID, error) {
	if n == nil {
		return 0, fmt.Errorf("%w: nil node", ErrInvalidReference)
	}
	if arity := n.Kind.Arity(); arity >= 0 && len(n.Args) != arity {
		return 0, fmt.Errorf("%w: %s expects %d, got %d", ErrInvalidArity, n.Kind, arity, len(n.Args))
	}
	next := NodeID(len(m.nodes))
	for i, a := range n.Args {
		if a.IsConstant() {
			continue
		}
		if id := a.Node(); id < 0 || id >= next {
			return 0, fmt.Errorf("%w: argument %d of %s references node %d (session has %d)",
				ErrInvalidReference, i, n.Kind, id, next)
		}
	}

	var key string
	if n.Kind.IsPure() {
		key = nodeKey(n)
		if id, ok := m.shared[key]; ok {
			return id, nil
		}
	}

	for _, a := range n.Args {
		if !a.IsConstant() {
			m.nodes[a.Node()].Usage++
		}
	}
	m.nodes = append(m.nodes, n)
	if key != "" {
		m.shared[key] = next
	}
	return next, nil
}

// Reset releases every node of the session.
func (m *Manager) Reset() {
	m.nodes = m.nodes[:0]
	clear(m.shared)
	m.loops = 0
}

// Variable returns the independent node for element i of array a.
func (m *Manager) Variable(a Array, i int) Value {
	return Ref(m.MustCreate(KindInv, nil, []int{int(a), i}))
}

// Variables returns independent nodes for the first n elements of array a.
func (m *Manager) Variables(a Array, n int) []Value {
	vars := make([]Value, n)
	for i := range vars {
		vars[i] = m.Variable(a, i)
	}
	return vars
}

// NewIndex creates the iteration index of a new loop.
func (m *Manager) NewIndex() NodeID {
	id := m.MustCreate(KindIndex, nil, []int{m.loops})
	m.loops++
	return id
}

// IndexedVariable creates a loop-indexed independent of array a. elems holds
// the array element used at each iteration, or -1 where none is used.
func (m *Manager) IndexedVariable(a Array, index NodeID, elems []int) Value {
	info := make([]int, 0, len(elems)+1)
	info = append(info, int(a))
	info = append(info, elems...)
	return Ref(m.MustCreate(KindIndexedInv, []Value{Ref(index)}, info))
}

func nodeKey(n *Node) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(n.Kind)))
	for _, a := range n.Args {
		if a.IsConstant() {
			b.WriteString("|c")
			b.WriteString(strconv.FormatUint(math.Float64bits(a.Constant()), 16))
		} else {
			b.WriteString("|n")
			b.WriteString(strconv.Itoa(int(a.Node())))
		}
	}
	b.WriteByte('#')
	for _, i := range n.Info {
		b.WriteString(strconv.Itoa(i))
		b.WriteByte(',')
	}
	return b.String()
}
