// Package tape records elementary operations applied to independent variables
// and evaluates derivatives of the recorded function, numerically or
// symbolically into a graph session.
//
// Usage:
//
//	rec := tape.NewRecorder()
//	x := rec.Independent(2)
//	y := rec.Mul(x[0], rec.Sin(x[1]))
//	t := rec.Dependent(y)
//	grad, err := t.Gradient([]float64{1, 2}, []float64{1})
package tape

import (
	"errors"
	"fmt"

	"github.com/born-ml/adcg/internal/tape/ops"
)

// ErrSizeMismatch reports vectors whose length does not match the tape.
var ErrSizeMismatch = errors.New("tape: size mismatch")

// Var is the address of a variable on a tape.
type Var int

type instrKind uint8

const (
	instrIndependent instrKind = iota
	instrConstant
	instrOperation
)

type instr struct {
	kind  instrKind
	op    ops.Operation
	args  []Var
	value float64 // constant value
	index int     // independent index
}

// Tape is an immutable record of operations with designated dependents.
// Tapes derived with Subset share the recorded operations.
type Tape struct {
	instrs     []instr
	domain     int
	dependents []Var
}

// Domain returns the number of independent variables.
func (t *Tape) Domain() int {
	return t.domain
}

// Range returns the number of dependent variables.
func (t *Tape) Range() int {
	return len(t.dependents)
}

// NumVars returns the number of recorded variables.
func (t *Tape) NumVars() int {
	return len(t.instrs)
}

// NumOps returns the number of recorded operations.
func (t *Tape) NumOps() int {
	n := 0
	for i := range t.instrs {
		if t.instrs[i].kind == instrOperation {
			n++
		}
	}
	return n
}

// DependentVar returns the variable holding dependent i.
func (t *Tape) DependentVar(i int) Var {
	return t.dependents[i]
}

// Subset returns a tape over the same operations whose dependents are vars.
func (t *Tape) Subset(vars []Var) *Tape {
	for _, v := range vars {
		t.mustHaveVar(v)
	}
	return &Tape{
		instrs:     t.instrs,
		domain:     t.domain,
		dependents: append([]Var(nil), vars...),
	}
}

func (t *Tape) mustHaveVar(v Var) {
	if v < 0 || int(v) >= len(t.instrs) {
		panic(fmt.Sprintf("tape: variable %d out of range [0, %d)", v, len(t.instrs)))
	}
}

func checkSize(what string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %s has %d elements, want %d", ErrSizeMismatch, what, got, want)
	}
	return nil
}

// Recorder records operations into a new tape.
//
// Independent variables must be declared before any other variable.
type Recorder struct {
	instrs []instr
	domain int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		instrs: make([]instr, 0, 64),
	}
}

// Independent declares n independent variables.
func (r *Recorder) Independent(n int) []Var {
	if len(r.instrs) != r.domain {
		panic("tape: independent variables must be declared first")
	}
	vars := make([]Var, n)
	for i := range vars {
		vars[i] = r.push(instr{kind: instrIndependent, index: r.domain})
		r.domain++
	}
	return vars
}

// Const records a constant.
func (r *Recorder) Const(v float64) Var {
	return r.push(instr{kind: instrConstant, value: v})
}

// Apply records op applied to args.
func (r *Recorder) Apply(op ops.Operation, args ...Var) Var {
	if len(args) != op.Arity() {
		panic(fmt.Sprintf("tape: %s expects %d arguments, got %d", ops.Name(op), op.Arity(), len(args)))
	}
	for _, a := range args {
		if a < 0 || int(a) >= len(r.instrs) {
			panic(fmt.Sprintf("tape: argument %d is not recorded", a))
		}
	}
	return r.push(instr{kind: instrOperation, op: op, args: append([]Var(nil), args...)})
}

func (r *Recorder) Add(a, b Var) Var  { return r.Apply(ops.AddOp{}, a, b) }
func (r *Recorder) Sub(a, b Var) Var  { return r.Apply(ops.SubOp{}, a, b) }
func (r *Recorder) Mul(a, b Var) Var  { return r.Apply(ops.MulOp{}, a, b) }
func (r *Recorder) Div(a, b Var) Var  { return r.Apply(ops.DivOp{}, a, b) }
func (r *Recorder) Neg(a Var) Var     { return r.Apply(ops.NegOp{}, a) }
func (r *Recorder) Sin(a Var) Var     { return r.Apply(ops.SinOp{}, a) }
func (r *Recorder) Cos(a Var) Var     { return r.Apply(ops.CosOp{}, a) }
func (r *Recorder) Exp(a Var) Var     { return r.Apply(ops.ExpOp{}, a) }
func (r *Recorder) Log(a Var) Var     { return r.Apply(ops.LogOp{}, a) }
func (r *Recorder) Sqrt(a Var) Var    { return r.Apply(ops.SqrtOp{}, a) }
func (r *Recorder) Tanh(a Var) Var    { return r.Apply(ops.TanhOp{}, a) }

// NumOps returns the number of operations recorded so far.
func (r *Recorder) NumOps() int {
	return len(r.instrs) - r.domain
}

// Dependent ends the recording and returns a tape computing ys.
// The recorder can keep recording; later operations are not part of the tape.
func (r *Recorder) Dependent(ys ...Var) *Tape {
	t := &Tape{
		instrs:     r.instrs[:len(r.instrs):len(r.instrs)],
		domain:     r.domain,
		dependents: append([]Var(nil), ys...),
	}
	for _, y := range ys {
		t.mustHaveVar(y)
	}
	return t
}

func (r *Recorder) push(in instr) Var {
	r.instrs = append(r.instrs, in)
	return Var(len(r.instrs) - 1)
}
