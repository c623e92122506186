package model

import (
	"context"
	"math"
	"testing"

	"github.com/born-ml/adcg/internal/codegen"
	"github.com/born-ml/adcg/internal/models"
	"github.com/born-ml/adcg/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileDynamic(t *testing.T, opts codegen.Options) *Model {
	t.Helper()
	res, err := codegen.New(opts).Generate(models.Dynamic().Tape)
	require.NoError(t, err)
	m, err := Compile(res)
	require.NoError(t, err)
	return m
}

func TestCompile(t *testing.T) {
	_, err := Compile(nil)
	assert.ErrorIs(t, err, ErrNilResult)

	m := compileDynamic(t, codegen.Options{})
	assert.Equal(t, 3, m.Domain())
	assert.Equal(t, 2, m.Range())
}

func TestModel_Errors(t *testing.T) {
	m := compileDynamic(t, codegen.Options{Jacobian: true})

	_, err := m.ForwardZero([]float64{1})
	assert.ErrorIs(t, err, ErrSizeMismatch)

	_, _, _, err = m.SparseJacobian([]float64{1, 2})
	assert.ErrorIs(t, err, ErrSizeMismatch)

	_, _, _, err = m.SparseHessian([]float64{1, 2, 3}, []float64{1, 1})
	assert.ErrorIs(t, err, ErrNotGenerated)

	_, err = m.DenseHessian([]float64{1, 2, 3}, []float64{1, 1})
	assert.ErrorIs(t, err, ErrNotGenerated)

	m = compileDynamic(t, codegen.Options{Hessian: true})
	_, _, _, err = m.SparseJacobian([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrNotGenerated)

	_, _, _, err = m.SparseHessian([]float64{1, 2, 3}, []float64{1})
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestModel_Dense(t *testing.T) {
	m := compileDynamic(t, codegen.Options{Jacobian: true, Hessian: true})
	x := []float64{0.25, -1, 4}

	jac, err := m.DenseJacobian(x)
	require.NoError(t, err)
	r, c := jac.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.InDelta(t, -math.Sin(0.25), jac.At(0, 0), 1e-15)
	assert.Zero(t, jac.At(0, 1))
	assert.InDelta(t, 4, jac.At(1, 1), 1e-15)
	assert.InDelta(t, -1, jac.At(1, 2), 1e-15)

	hes, err := m.DenseHessian(x, []float64{1, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, -math.Cos(0.25)-0.5*math.Sin(0.25), hes.At(0, 0), 1e-15)
	assert.InDelta(t, 0.5, hes.At(1, 2), 1e-15)
	assert.InDelta(t, 0.5, hes.At(2, 1), 1e-15)
	assert.Zero(t, hes.At(1, 1))
}

func TestModel_ForwardZeroBatch(t *testing.T) {
	src := models.Pattern(5)
	res, err := codegen.New(codegen.Options{RelatedDependents: src.Related}).Generate(src.Tape)
	require.NoError(t, err)
	m, err := Compile(res, WithParallel(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 2}))
	require.NoError(t, err)

	xs := make([][]float64, 40)
	for i := range xs {
		xs[i] = append([]float64(nil), src.Point...)
		xs[i][0] += 0.01 * float64(i)
	}
	ys, err := m.ForwardZeroBatch(context.Background(), xs)
	require.NoError(t, err)
	require.Len(t, ys, len(xs))
	for i, x := range xs {
		want, err := src.Tape.Forward(x)
		require.NoError(t, err)
		assert.InDeltaSlice(t, want, ys[i], 1e-12, "point %d", i)
	}

	xs[17] = []float64{1}
	_, err = m.ForwardZeroBatch(context.Background(), xs)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestModel_ConcurrentEvaluation(t *testing.T) {
	src := models.Distillation(4)
	res, err := codegen.New(codegen.Options{
		Jacobian:          true,
		RelatedDependents: src.Related,
	}).Generate(src.Tape)
	require.NoError(t, err)
	m, err := Compile(res)
	require.NoError(t, err)

	want, _, _, err := m.SparseJacobian(src.Point)
	require.NoError(t, err)

	got := make([][]float64, 16)
	parallel.For(len(got), func(i int) {
		got[i], _, _, _ = m.SparseJacobian(src.Point)
	}, parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1})
	for i := range got {
		assert.Equal(t, want, got[i], "evaluation %d", i)
	}
}
