package tape

import (
	"strconv"
	"strings"

	"github.com/born-ml/adcg/internal/tape/ops"
)

// Expr is a node of the expression tree computing a tape variable.
// Shared variables appear as the same *Expr in several places.
type Expr struct {
	Var         Var
	Op          ops.Operation // nil for leaves
	Independent int           // independent index of a leaf, -1 otherwise
	Value       float64       // constant leaf value
	Args        []*Expr
}

// IsIndependent reports whether e is an independent leaf.
func (e *Expr) IsIndependent() bool {
	return e.Op == nil && e.Independent >= 0
}

// IsConstant reports whether e is a constant leaf.
func (e *Expr) IsConstant() bool {
	return e.Op == nil && e.Independent < 0
}

// Signature returns the structure of e with independent leaves anonymized.
// Two expressions with equal signatures differ only in which independents
// their leaves read.
func (e *Expr) Signature() string {
	var b strings.Builder
	e.write(&b, false)
	return b.String()
}

// String returns the expression with its independent leaves, e.g. "mul(x0, sin(x1))".
func (e *Expr) String() string {
	var b strings.Builder
	e.write(&b, true)
	return b.String()
}

func (e *Expr) write(b *strings.Builder, named bool) {
	switch {
	case e.IsIndependent():
		b.WriteByte('x')
		if named {
			b.WriteString(strconv.Itoa(e.Independent))
		}
	case e.IsConstant():
		b.WriteString(strconv.FormatFloat(e.Value, 'g', -1, 64))
	default:
		b.WriteString(ops.Name(e.Op))
		b.WriteByte('(')
		for i, a := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.write(b, named)
		}
		b.WriteByte(')')
	}
}

// Expression returns the expression tree of variable v.
func (t *Tape) Expression(v Var) *Expr {
	t.mustHaveVar(v)
	memo := make(map[Var]*Expr)
	return t.expression(v, memo)
}

func (t *Tape) expression(v Var, memo map[Var]*Expr) *Expr {
	if e, ok := memo[v]; ok {
		return e
	}
	in := &t.instrs[v]
	e := &Expr{Var: v, Independent: -1}
	switch in.kind {
	case instrIndependent:
		e.Independent = in.index
	case instrConstant:
		e.Value = in.value
	case instrOperation:
		e.Op = in.op
		e.Args = make([]*Expr, len(in.args))
		for i, a := range in.args {
			e.Args[i] = t.expression(a, memo)
		}
	}
	memo[v] = e
	return e
}
