// Package codegen builds the symbolic zero order, Jacobian and Hessian
// functions of a tape, reusing repeated equation patterns as loops.
//
// Without related dependents the tape is differentiated as a whole. With
// them, structurally repeated equations are evaluated inside loops whose
// entries are evaluated once per iteration, and the rest of the model is
// handled by a loop-free model (see internal/loopfree).
package codegen

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/born-ml/adcg/internal/graph"
	"github.com/born-ml/adcg/internal/jobtimer"
	"github.com/born-ml/adcg/internal/loops"
	"github.com/born-ml/adcg/internal/sparsity"
	"github.com/born-ml/adcg/internal/tape"
)

var (
	// ErrNilTape is returned when no tape is given.
	ErrNilTape = errors.New("codegen: nil tape")

	// ErrInvalidPattern reports a custom sparsity pattern with the wrong shape.
	ErrInvalidPattern = errors.New("codegen: invalid custom sparsity pattern")
)

// Options configures a Generator.
type Options struct {
	// RelatedDependents lists candidate sets of dependents repeating the
	// same equation; the i-th smallest element of a set is iteration i.
	RelatedDependents [][]int

	Jacobian bool
	Hessian  bool

	// CustomJacobian and CustomHessian restrict the generated elements to a
	// subset of the full sparsity. Nil selects the full sparsity.
	CustomJacobian sparsity.Pattern
	CustomHessian  sparsity.Pattern

	Logger *slog.Logger
	Timer  *jobtimer.Timer
}

// Generator creates the symbolic functions of tapes.
type Generator struct {
	opts   Options
	logger *slog.Logger
}

// New creates a generator.
func New(opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{opts: opts, logger: logger}
}

// session holds the state of one Generate call.
type session struct {
	g      *graph.Manager
	f      *tape.Tape
	x      []graph.Value
	res    *Result
	jacLoc locator
	hesLoc locator
}

// Generate builds the functions of t.
func (gen *Generator) Generate(t *tape.Tape) (*Result, error) {
	if t == nil {
		return nil, ErrNilTape
	}

	g := graph.NewManager()
	s := &session{
		g: g,
		f: t,
		x: g.Variables(graph.ArrayX, t.Domain()),
		res: &Result{
			Graph:  g,
			Domain: t.Domain(),
			Range:  t.Range(),
			Zero:   Output{Size: t.Range()},
		},
	}
	if err := gen.prepareOutputs(s); err != nil {
		return nil, err
	}

	var detection *loops.Detection
	if len(gen.opts.RelatedDependents) > 0 {
		stop := gen.opts.Timer.Start(jobtimer.PhaseDetection)
		d, err := loops.Detect(t, gen.opts.RelatedDependents, gen.logger)
		stop()
		if err != nil {
			return nil, fmt.Errorf("detect loops: %w", err)
		}
		if len(d.Loops) > 0 {
			detection = d
		} else {
			gen.logger.Debug("no loop detected, differentiating the whole tape")
		}
	}

	if detection == nil {
		gen.generateDirect(s)
	} else {
		gen.generateWithLoops(s, detection)
	}

	gen.logger.Debug("code generation finished",
		"nodes", g.Len(),
		"loops", len(s.res.Loops),
		"temporaries", len(s.res.Temporaries))
	return s.res, nil
}

// prepareOutputs sets the sparsity of the requested derivative outputs.
func (gen *Generator) prepareOutputs(s *session) error {
	n, m := s.f.Domain(), s.f.Range()
	if gen.opts.Jacobian {
		p, err := restrict(s.f.JacobianSparsity(), gen.opts.CustomJacobian, m, n)
		if err != nil {
			return fmt.Errorf("jacobian: %w", err)
		}
		rows, cols := sparsity.Indexes(p)
		s.res.Jacobian = &Output{Size: len(rows), Rows: rows, Cols: cols}
		s.jacLoc = newLocator(rows, cols, m)
	}
	if gen.opts.Hessian {
		p, err := restrict(s.f.HessianSparsity(sparsity.Range(0, m)), gen.opts.CustomHessian, n, n)
		if err != nil {
			return fmt.Errorf("hessian: %w", err)
		}
		rows, cols := sparsity.Indexes(p)
		s.res.Hessian = &Output{Size: len(rows), Rows: rows, Cols: cols}
		s.hesLoc = newLocator(rows, cols, n)
	}
	return nil
}

// restrict intersects the full sparsity with a custom one.
func restrict(full, custom sparsity.Pattern, rows, cols int) (sparsity.Pattern, error) {
	if custom == nil {
		return full, nil
	}
	if len(custom) != rows {
		return nil, fmt.Errorf("%w: %d rows, want %d", ErrInvalidPattern, len(custom), rows)
	}
	p := sparsity.New(rows)
	for i, s := range custom {
		if len(s) > 0 && (s.Min() < 0 || s.Max() >= cols) {
			return nil, fmt.Errorf("%w: row %d has columns outside [0, %d)", ErrInvalidPattern, i, cols)
		}
		p[i] = full[i].Intersection(s)
	}
	return p, nil
}

// generateDirect differentiates the whole tape without loops.
func (gen *Generator) generateDirect(s *session) {
	stop := gen.opts.Timer.Start(jobtimer.PhaseZeroOrder)
	for i, y := range s.f.Replay(s.g, s.x) {
		s.res.Zero.add(i, y)
	}
	stop()

	if jac := s.res.Jacobian; jac != nil {
		stop := gen.opts.Timer.Start(jobtimer.PhaseJacobian)
		for e, v := range s.f.SparseJacobian(s.g, s.x, jac.Rows, jac.Cols) {
			jac.add(e, v)
		}
		stop()
	}

	if hes := s.res.Hessian; hes != nil {
		stop := gen.opts.Timer.Start(jobtimer.PhaseHessian)
		w := s.g.Variables(graph.ArrayW, s.f.Range())
		for e, v := range s.f.SparseHessian(s.g, s.x, w, hes.Rows, hes.Cols) {
			hes.add(e, v)
		}
		stop()
	}
}
