// Package models holds the built-in models used by the command line tools
// and by the end-to-end tests of code generation.
package models

import (
	"errors"
	"fmt"
	"slices"

	"github.com/born-ml/adcg/internal/loops"
	"github.com/born-ml/adcg/internal/tape"
)

var (
	// ErrUnknownModel is returned by Build for names not in Names.
	ErrUnknownModel = errors.New("models: unknown model")

	// ErrInvalidRepeat reports a repeat count the model cannot be built with.
	ErrInvalidRepeat = errors.New("models: invalid repeat count")
)

// Model is a recorded model ready for code generation.
type Model struct {
	Name string

	// Tape computes the model dependents.
	Tape *tape.Tape

	// Related lists the candidate sets of related dependents, nil when the
	// model has no repeated equations.
	Related [][]int

	// Point is a valid evaluation point of the tape.
	Point []float64

	// Labels names the independents.
	Labels []string
}

type builder struct {
	describe string
	minimum  int
	build    func(repeat int) *Model
}

var builders = map[string]builder{
	"dynamic": {
		describe: "two dependents of three independents without repeated structure",
		build:    func(int) *Model { return Dynamic() },
	},
	"pattern": {
		describe: "repeat copies of a two equation block sharing one parameter",
		minimum:  1,
		build:    Pattern,
	},
	"distillation": {
		describe: "water/ethanol distillation column with repeat trays",
		minimum:  3,
		build:    Distillation,
	},
}

// Names returns the names of the built-in models in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Describe returns a one line description of a built-in model.
func Describe(name string) string {
	return builders[name].describe
}

// Build records the named model. Models without repeated structure ignore
// repeat.
func Build(name string, repeat int) (*Model, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	if repeat < b.minimum {
		return nil, fmt.Errorf("%w: %s needs at least %d, got %d", ErrInvalidRepeat, name, b.minimum, repeat)
	}
	return b.build(repeat), nil
}

// Dynamic records
//
//	y0 = cos(u0)
//	y1 = u1*u2 + sin(u0)
func Dynamic() *Model {
	rec := tape.NewRecorder()
	u := rec.Independent(3)
	y0 := rec.Cos(u[0])
	y1 := rec.Add(rec.Mul(u[1], u[2]), rec.Sin(u[0]))
	return &Model{
		Name:   "dynamic",
		Tape:   rec.Dependent(y0, y1),
		Point:  []float64{1, 1, 1},
		Labels: []string{"u0", "u1", "u2"},
	}
}

// Pattern records repeat copies of
//
//	y[2r]   = cos(a_r)*b_r + p*p
//	y[2r+1] = a_r/(1 + b_r*b_r) - log(p)*a_r
//
// where a_r = x[2r], b_r = x[2r+1] and p is the last independent.
func Pattern(repeat int) *Model {
	rec := tape.NewRecorder()
	x := rec.Independent(2*repeat + 1)
	p := x[2*repeat]
	one := rec.Const(1)

	ys := make([]tape.Var, 0, 2*repeat)
	labels := make([]string, 0, len(x))
	point := make([]float64, 0, len(x))
	for r := range repeat {
		a, b := x[2*r], x[2*r+1]
		ys = append(ys,
			rec.Add(rec.Mul(rec.Cos(a), b), rec.Mul(p, p)),
			rec.Sub(rec.Div(a, rec.Add(one, rec.Mul(b, b))), rec.Mul(rec.Log(p), a)))
		labels = append(labels, fmt.Sprintf("a%d", r), fmt.Sprintf("b%d", r))
		point = append(point, 0.5+0.1*float64(r), 1.5-0.05*float64(r))
	}
	return &Model{
		Name:    "pattern",
		Tape:    rec.Dependent(ys...),
		Related: loops.RelatedCandidates(2, repeat),
		Point:   append(point, 1.25),
		Labels:  append(labels, "p"),
	}
}
