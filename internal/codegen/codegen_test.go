package codegen_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/born-ml/adcg/internal/codegen"
	"github.com/born-ml/adcg/internal/jobtimer"
	"github.com/born-ml/adcg/internal/model"
	"github.com/born-ml/adcg/internal/models"
	"github.com/born-ml/adcg/internal/sparsity"
	"github.com/born-ml/adcg/internal/tape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, m *models.Model, opts codegen.Options) (*model.Model, *codegen.Result) {
	t.Helper()
	res, err := codegen.New(opts).Generate(m.Tape)
	require.NoError(t, err)
	compiled, err := model.Compile(res)
	require.NoError(t, err)
	return compiled, res
}

func weights(m int) []float64 {
	w := make([]float64, m)
	for i := range w {
		w[i] = 1 + 0.25*float64(i%5)
	}
	return w
}

func assertClose(t *testing.T, want, got []float64, msgAndArgs ...any) {
	t.Helper()
	require.Len(t, got, len(want), msgAndArgs...)
	for i := range want {
		tol := 1e-9 * math.Max(1, math.Abs(want[i]))
		assert.InDelta(t, want[i], got[i], tol, append([]any{"element %d"}, i)...)
	}
}

func TestGenerate_Errors(t *testing.T) {
	_, err := codegen.New(codegen.Options{}).Generate(nil)
	assert.ErrorIs(t, err, codegen.ErrNilTape)

	m := models.Dynamic()
	_, err = codegen.New(codegen.Options{
		Jacobian:       true,
		CustomJacobian: sparsity.New(5),
	}).Generate(m.Tape)
	assert.ErrorIs(t, err, codegen.ErrInvalidPattern)

	_, err = codegen.New(codegen.Options{
		Hessian:       true,
		CustomHessian: sparsity.Pattern{{0, 7}, nil, nil},
	}).Generate(m.Tape)
	assert.ErrorIs(t, err, codegen.ErrInvalidPattern)

	_, err = codegen.New(codegen.Options{RelatedDependents: [][]int{{0, 4}}}).Generate(m.Tape)
	assert.Error(t, err)
}

func TestGenerate_Direct(t *testing.T) {
	m := models.Dynamic()
	compiled, res := compile(t, m, codegen.Options{Jacobian: true, Hessian: true})
	assert.Empty(t, res.Loops)
	assert.Empty(t, res.Temporaries)

	x := []float64{0.5, 2, 3}
	y, err := compiled.ForwardZero(x)
	require.NoError(t, err)
	assertClose(t, []float64{math.Cos(0.5), 6 + math.Sin(0.5)}, y)

	jac, rows, cols, err := compiled.SparseJacobian(x)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1, 1}, rows)
	assert.Equal(t, []int{0, 0, 1, 2}, cols)
	assertClose(t, []float64{-math.Sin(0.5), math.Cos(0.5), 3, 2}, jac)

	w := []float64{2, 3}
	hes, rows, cols, err := compiled.SparseHessian(x, w)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, rows)
	assert.Equal(t, []int{0, 2, 1}, cols)
	assertClose(t, []float64{-2*math.Cos(0.5) - 3*math.Sin(0.5), 3, 3}, hes)
}

// TestGenerate_LoopsMatchDirect generates every model with and without loop
// detection and compares the evaluated functions.
func TestGenerate_LoopsMatchDirect(t *testing.T) {
	tests := []struct {
		name      string
		model     string
		repeat    int
		loops     int
		temporary int
	}{
		{"pattern", "pattern", 4, 1, 2},
		{"single copy", "pattern", 1, 0, 0},
		{"column", "distillation", 5, 2, 1},
		{"smallest column", "distillation", 3, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := models.Build(tt.model, tt.repeat)
			require.NoError(t, err)

			opts := codegen.Options{Jacobian: true, Hessian: true}
			direct, _ := compile(t, m, opts)
			opts.RelatedDependents = m.Related
			looped, res := compile(t, m, opts)
			assert.Len(t, res.Loops, tt.loops)
			assert.Len(t, res.Temporaries, tt.temporary)

			x := m.Point
			want, err := direct.ForwardZero(x)
			require.NoError(t, err)
			got, err := looped.ForwardZero(x)
			require.NoError(t, err)
			assertClose(t, want, got, "zero order")

			wantJac, wantRows, wantCols, err := direct.SparseJacobian(x)
			require.NoError(t, err)
			gotJac, rows, cols, err := looped.SparseJacobian(x)
			require.NoError(t, err)
			assert.Equal(t, wantRows, rows)
			assert.Equal(t, wantCols, cols)
			assertClose(t, wantJac, gotJac, "jacobian")

			w := weights(m.Tape.Range())
			wantHes, wantRows, wantCols, err := direct.SparseHessian(x, w)
			require.NoError(t, err)
			gotHes, rows, cols, err := looped.SparseHessian(x, w)
			require.NoError(t, err)
			assert.Equal(t, wantRows, rows)
			assert.Equal(t, wantCols, cols)
			assertClose(t, wantHes, gotHes, "hessian")
		})
	}
}

// TestGenerate_LoopFixedElementsShareEntries records y[r] = x[r]*x[3] +
// sin(x[3]), where x[3] is read both as a non-indexed independent and
// through the temporary sin(x[3]).
func TestGenerate_LoopFixedElementsShareEntries(t *testing.T) {
	rec := tape.NewRecorder()
	x := rec.Independent(4)
	var ys []tape.Var
	for r := range 3 {
		ys = append(ys, rec.Add(rec.Mul(x[r], x[3]), rec.Sin(x[3])))
	}
	m := &models.Model{
		Name:    "shared",
		Tape:    rec.Dependent(ys...),
		Related: [][]int{{0, 1, 2}},
		Point:   []float64{0.4, -0.9, 1.7, 0.6},
	}

	opts := codegen.Options{Jacobian: true, Hessian: true}
	direct, _ := compile(t, m, opts)
	opts.RelatedDependents = m.Related
	looped, res := compile(t, m, opts)
	require.Len(t, res.Loops, 1)
	require.Len(t, res.Temporaries, 1)

	// dy/dx[r] and one combined dy/dx[3]
	assert.Empty(t, res.Jacobian.Direct)
	assert.Len(t, res.Jacobian.Looped, 2)
	// (x[r], x[3]), (x[3], x[r]) and the second order term of sin(x[3])
	assert.Empty(t, res.Hessian.Direct)
	assert.Len(t, res.Hessian.Looped, 3)

	wantJac, _, _, err := direct.SparseJacobian(m.Point)
	require.NoError(t, err)
	gotJac, _, _, err := looped.SparseJacobian(m.Point)
	require.NoError(t, err)
	assertClose(t, wantJac, gotJac, "jacobian")

	w := []float64{1.5, -0.5, 2}
	wantHes, _, _, err := direct.SparseHessian(m.Point, w)
	require.NoError(t, err)
	gotHes, _, _, err := looped.SparseHessian(m.Point, w)
	require.NoError(t, err)
	assertClose(t, wantHes, gotHes, "hessian")
}

func TestGenerate_LoopJacobianMatchesTape(t *testing.T) {
	m := models.Distillation(4)
	compiled, _ := compile(t, m, codegen.Options{Jacobian: true, RelatedDependents: m.Related})

	jac, err := compiled.DenseJacobian(m.Point)
	require.NoError(t, err)
	r, c := jac.Dims()
	require.Equal(t, m.Tape.Range(), r)
	require.Equal(t, m.Tape.Domain(), c)

	for i := range r {
		w := make([]float64, r)
		w[i] = 1
		row, err := m.Tape.Gradient(m.Point, w)
		require.NoError(t, err)
		for j := range c {
			assert.InDelta(t, row[j], jac.At(i, j), 1e-9*math.Max(1, math.Abs(row[j])), "(%d, %d)", i, j)
		}
	}
}

func TestGenerate_LoopHessianMatchesFiniteDifferences(t *testing.T) {
	m := models.Pattern(3)
	compiled, _ := compile(t, m, codegen.Options{Hessian: true, RelatedDependents: m.Related})

	w := weights(m.Tape.Range())
	hes, err := compiled.DenseHessian(m.Point, w)
	require.NoError(t, err)

	const h = 1e-6
	n := m.Tape.Domain()
	for j := range n {
		xp := append([]float64(nil), m.Point...)
		xm := append([]float64(nil), m.Point...)
		xp[j] += h
		xm[j] -= h
		gp, err := m.Tape.Gradient(xp, w)
		require.NoError(t, err)
		gm, err := m.Tape.Gradient(xm, w)
		require.NoError(t, err)
		for i := range n {
			fd := (gp[i] - gm[i]) / (2 * h)
			assert.InDelta(t, fd, hes.At(i, j), 1e-6, "(%d, %d)", i, j)
		}
	}
}

func TestGenerate_CustomPatterns(t *testing.T) {
	m := models.Distillation(5)
	n, rng := m.Tape.Domain(), m.Tape.Range()

	customJac := sparsity.New(rng)
	for i := 0; i < rng; i += 3 {
		customJac[i] = sparsity.Range(0, n)
	}
	customHes := sparsity.New(n)
	for i := range n {
		customHes[i] = sparsity.NewSet(i)
	}

	opts := codegen.Options{
		Jacobian:       true,
		Hessian:        true,
		CustomJacobian: customJac,
		CustomHessian:  customHes,
	}
	direct, res := compile(t, m, opts)
	for e, row := range res.Jacobian.Rows {
		assert.Zero(t, row%3, "element %d", e)
	}
	for e := range res.Hessian.Rows {
		assert.Equal(t, res.Hessian.Rows[e], res.Hessian.Cols[e])
	}

	opts.RelatedDependents = m.Related
	looped, _ := compile(t, m, opts)

	wantJac, _, _, err := direct.SparseJacobian(m.Point)
	require.NoError(t, err)
	gotJac, _, _, err := looped.SparseJacobian(m.Point)
	require.NoError(t, err)
	assertClose(t, wantJac, gotJac)

	w := weights(rng)
	wantHes, _, _, err := direct.SparseHessian(m.Point, w)
	require.NoError(t, err)
	gotHes, _, _, err := looped.SparseHessian(m.Point, w)
	require.NoError(t, err)
	assertClose(t, wantHes, gotHes)
}

func TestGenerate_PartialPresenceUsesConditions(t *testing.T) {
	m := models.Distillation(5)
	_, res := compile(t, m, codegen.Options{Jacobian: true, RelatedDependents: m.Related})

	// the reboiler balances are computed outside the loops
	require.NotEmpty(t, res.Zero.Looped)
	for _, e := range res.Zero.Looped {
		if e.Loop == 0 {
			assert.Equal(t, -1, e.Locations[len(e.Locations)-1])
		}
	}
	var direct []int
	for _, e := range res.Zero.Direct {
		direct = append(direct, e.Loc)
	}
	assert.ElementsMatch(t, []int{0, 4, 5, 9}, direct)
}

func TestGenerate_Timer(t *testing.T) {
	m := models.Pattern(3)
	timer := jobtimer.New()
	_, _ = compile(t, m, codegen.Options{
		Jacobian:          true,
		Hessian:           true,
		RelatedDependents: m.Related,
		Timer:             timer,
	})

	assert.Equal(t, []string{
		jobtimer.PhaseDetection,
		jobtimer.PhaseZeroOrder,
		jobtimer.PhaseJacobian,
		jobtimer.PhaseHessian,
	}, timer.Phases())
}

func TestResult_Dump(t *testing.T) {
	m := models.Pattern(2)
	_, res := compile(t, m, codegen.Options{Jacobian: true, RelatedDependents: m.Related})

	var buf bytes.Buffer
	require.NoError(t, res.Dump(&buf))
	assert.Contains(t, buf.String(), "loop 0")
	assert.NotEmpty(t, res.Jacobian.Pattern(m.Tape.Range()))
}
