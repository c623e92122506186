package tape

import (
	"github.com/born-ml/adcg/internal/sparsity"
	"github.com/born-ml/adcg/internal/tape/ops"
)

// JacobianSparsity returns the Range×Domain dependency pattern.
func (t *Tape) JacobianSparsity() sparsity.Pattern {
	deps := t.dependencies()
	p := sparsity.New(len(t.dependents))
	for i, v := range t.dependents {
		p[i] = deps[v].Clone()
	}
	return p
}

// HessianSparsity returns the Domain×Domain pattern of the Hessian of the
// dependents listed in eqs. The pattern is symmetric.
func (t *Tape) HessianSparsity(eqs sparsity.Set) sparsity.Pattern {
	deps := t.dependencies()
	live := make([]bool, len(t.instrs))
	for _, i := range eqs {
		live[t.dependents[i]] = true
	}

	p := sparsity.New(t.domain)
	for v := len(t.instrs) - 1; v >= 0; v-- {
		in := &t.instrs[v]
		if !live[v] || in.kind != instrOperation {
			continue
		}
		for _, a := range in.args {
			live[a] = true
		}
		switch in.op.Curvature() {
		case ops.Bilinear:
			a, b := deps[in.args[0]], deps[in.args[1]]
			cross(p, a, b)
			cross(p, b, a)
		case ops.Quotient:
			a, b := deps[in.args[0]], deps[in.args[1]]
			cross(p, a, b)
			cross(p, b, a)
			cross(p, b, b)
		case ops.Nonlinear:
			a := deps[in.args[0]]
			cross(p, a, a)
		}
	}
	return p
}

// dependencies propagates the independent sets forward through the tape.
func (t *Tape) dependencies() []sparsity.Set {
	deps := make([]sparsity.Set, len(t.instrs))
	for v := range t.instrs {
		in := &t.instrs[v]
		switch in.kind {
		case instrIndependent:
			deps[v] = sparsity.Set{in.index}
		case instrOperation:
			var s sparsity.Set
			for _, a := range in.args {
				s = s.Union(deps[a])
			}
			deps[v] = s
		}
	}
	return deps
}

func cross(p sparsity.Pattern, rows, cols sparsity.Set) {
	if len(cols) == 0 {
		return
	}
	for _, r := range rows {
		p[r].InsertAll(cols)
	}
}
