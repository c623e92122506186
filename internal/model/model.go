// Package model evaluates the functions built by code generation.
//
// A Model is read-only once compiled, so one Model can serve concurrent
// evaluations. Every evaluation uses its own graph evaluator.
package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/born-ml/adcg/internal/codegen"
	"github.com/born-ml/adcg/internal/graph"
	"github.com/born-ml/adcg/internal/parallel"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNilResult is returned when compiling nothing.
	ErrNilResult = errors.New("model: nil code generation result")

	// ErrNotGenerated reports a derivative that was not generated.
	ErrNotGenerated = errors.New("model: function not generated")

	// ErrSizeMismatch reports an input of the wrong length.
	ErrSizeMismatch = errors.New("model: size mismatch")
)

// Model is a compiled code generation result.
type Model struct {
	res *codegen.Result
	cfg parallel.Config
}

// Option configures a Model.
type Option func(*Model)

// WithParallel sets the parallel configuration of batch evaluations.
func WithParallel(cfg parallel.Config) Option {
	return func(m *Model) {
		m.cfg = cfg
	}
}

// Compile prepares res for evaluation.
func Compile(res *codegen.Result, opts ...Option) (*Model, error) {
	if res == nil {
		return nil, ErrNilResult
	}
	m := &Model{
		res: res,
		cfg: parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Domain returns the number of independents.
func (m *Model) Domain() int {
	return m.res.Domain
}

// Range returns the number of dependents.
func (m *Model) Range() int {
	return m.res.Range
}

// ForwardZero evaluates the dependents at x.
func (m *Model) ForwardZero(x []float64) ([]float64, error) {
	ev, err := m.session(x, nil)
	if err != nil {
		return nil, err
	}
	return evalOutput(ev, &m.res.Zero), nil
}

// ForwardZeroBatch evaluates the dependents at every point of xs.
func (m *Model) ForwardZeroBatch(ctx context.Context, xs [][]float64) ([][]float64, error) {
	ys := make([][]float64, len(xs))
	err := parallel.ForErr(ctx, len(xs), func(_ context.Context, i int) error {
		y, err := m.ForwardZero(xs[i])
		if err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
		ys[i] = y
		return nil
	}, m.cfg)
	if err != nil {
		return nil, err
	}
	return ys, nil
}

// SparseJacobian returns the Jacobian elements at x with their coordinates.
func (m *Model) SparseJacobian(x []float64) (values []float64, rows, cols []int, err error) {
	jac := m.res.Jacobian
	if jac == nil {
		return nil, nil, nil, fmt.Errorf("%w: jacobian", ErrNotGenerated)
	}
	ev, err := m.session(x, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return evalOutput(ev, jac), jac.Rows, jac.Cols, nil
}

// SparseHessian returns the elements of the Hessian of sum_i w[i]*y[i] at x
// with their coordinates.
func (m *Model) SparseHessian(x, w []float64) (values []float64, rows, cols []int, err error) {
	hes := m.res.Hessian
	if hes == nil {
		return nil, nil, nil, fmt.Errorf("%w: hessian", ErrNotGenerated)
	}
	if len(w) != m.res.Range {
		return nil, nil, nil, fmt.Errorf("%w: w has %d elements, want %d", ErrSizeMismatch, len(w), m.res.Range)
	}
	ev, err := m.session(x, w)
	if err != nil {
		return nil, nil, nil, err
	}
	return evalOutput(ev, hes), hes.Rows, hes.Cols, nil
}

// DenseJacobian returns the Range×Domain Jacobian at x.
func (m *Model) DenseJacobian(x []float64) (*mat.Dense, error) {
	values, rows, cols, err := m.SparseJacobian(x)
	if err != nil {
		return nil, err
	}
	return scatter(values, rows, cols, m.res.Range, m.res.Domain), nil
}

// DenseHessian returns the Domain×Domain weighted Hessian at x.
func (m *Model) DenseHessian(x, w []float64) (*mat.Dense, error) {
	values, rows, cols, err := m.SparseHessian(x, w)
	if err != nil {
		return nil, err
	}
	return scatter(values, rows, cols, m.res.Domain, m.res.Domain), nil
}

func scatter(values []float64, rows, cols []int, r, c int) *mat.Dense {
	if r == 0 || c == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(r, c, nil)
	for e, v := range values {
		d.Set(rows[e], cols[e], d.At(rows[e], cols[e])+v)
	}
	return d
}

// session prepares an evaluator with x, w and the temporaries.
func (m *Model) session(x, w []float64) (*graph.Evaluator, error) {
	if len(x) != m.res.Domain {
		return nil, fmt.Errorf("%w: x has %d elements, want %d", ErrSizeMismatch, len(x), m.res.Domain)
	}
	ev := graph.NewEvaluator(m.res.Graph)
	ev.SetArray(graph.ArrayX, x)
	if w != nil {
		ev.SetArray(graph.ArrayW, w)
	}
	if len(m.res.Temporaries) > 0 {
		z := make([]float64, len(m.res.Temporaries))
		for k, v := range m.res.Temporaries {
			z[k] = ev.Eval(v)
		}
		ev.SetArray(graph.ArrayZ, z)
	}
	return ev, nil
}

func evalOutput(ev *graph.Evaluator, o *codegen.Output) []float64 {
	out := make([]float64, o.Size)
	for _, e := range o.Direct {
		out[e.Loc] += ev.Eval(e.Value)
	}
	for _, e := range o.Looped {
		for it, loc := range e.Locations {
			if loc < 0 {
				continue
			}
			ev.BindIndex(e.Index, it)
			out[loc] += ev.Eval(e.Value)
		}
	}
	return out
}
