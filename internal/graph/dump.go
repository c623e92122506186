package graph

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// Dump writes a listing of every node reachable from outputs, in creation
// order, followed by the output assignments.
func (m *Manager) Dump(w io.Writer, outputs []Value) error {
	seen := make(map[NodeID]bool)
	var stack []NodeID
	for _, v := range outputs {
		if !v.IsConstant() && !seen[v.Node()] {
			seen[v.Node()] = true
			stack = append(stack, v.Node())
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, a := range m.nodes[id].Args {
			if !a.IsConstant() && !seen[a.Node()] {
				seen[a.Node()] = true
				stack = append(stack, a.Node())
			}
		}
	}

	ids := make([]NodeID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		if _, err := fmt.Fprintf(w, "v%d = %s\n", id, m.describe(m.nodes[id])); err != nil {
			return err
		}
	}
	for i, v := range outputs {
		if _, err := fmt.Fprintf(w, "out[%d] = %s\n", i, v); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) describe(n *Node) string {
	var b strings.Builder
	switch n.Kind {
	case KindInv:
		fmt.Fprintf(&b, "%s[%d]", Array(n.Info[0]), n.Info[1])
		return b.String()
	case KindIndex:
		fmt.Fprintf(&b, "index(loop %d)", n.Info[0])
		return b.String()
	case KindIndexedInv:
		fmt.Fprintf(&b, "%s[%v @ %s]", Array(n.Info[0]), n.Info[1:], n.Args[0])
		return b.String()
	case KindIndexCondExpr:
		fmt.Fprintf(&b, "%s in %v", n.Args[0], n.Info)
		return b.String()
	}
	b.WriteString(n.Kind.String())
	b.WriteByte('(')
	for i, a := range n.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}
