// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package codegen_test

import (
	"math"
	"testing"

	"github.com/born-ml/adcg/codegen"
	"github.com/born-ml/adcg/sparsity"
	"github.com/born-ml/adcg/tape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPublicAPI records y[r] = x[r]*exp(x[3]) for three copies and checks
// the looped Jacobian.
func TestPublicAPI(t *testing.T) {
	rec := tape.NewRecorder()
	x := rec.Independent(4)
	var ys []tape.Var
	for r := range 3 {
		ys = append(ys, rec.Mul(x[r], rec.Exp(x[3])))
	}
	f := rec.Dependent(ys...)

	res, err := codegen.Generate(f, codegen.Options{
		Jacobian:          true,
		RelatedDependents: [][]int{{0, 1, 2}},
	})
	require.NoError(t, err)
	require.Len(t, res.Loops, 1)

	m, err := codegen.Compile(res)
	require.NoError(t, err)

	point := []float64{1, 2, 3, 0.5}
	jac, rows, cols, err := m.SparseJacobian(point)
	require.NoError(t, err)

	want := sparsity.Pattern{{0, 3}, {1, 3}, {2, 3}}
	assert.Equal(t, want, sparsity.FromIndexes(rows, cols, 3))
	e := math.Exp(0.5)
	assert.InDeltaSlice(t, []float64{e, e, e, 2 * e, e, 3 * e}, jac, 1e-12)

	_, _, _, err = m.SparseHessian(point, []float64{1, 1, 1})
	assert.ErrorIs(t, err, codegen.ErrNotGenerated)
}
