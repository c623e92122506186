// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package sparsity_test

import (
	"testing"

	"github.com/born-ml/adcg/sparsity"
	"github.com/stretchr/testify/assert"
)

func TestAlgebra(t *testing.T) {
	// y0 = f(x1), y1 = g(x0, x2) composed with x = h(u), x0 = u0, x1 = u0*u1, x2 = u2
	jy := sparsity.Pattern{{1}, {0, 2}}
	jx := sparsity.Pattern{{0}, {0, 1}, {2}}

	assert.Equal(t, sparsity.Pattern{{0, 1}, {0, 2}}, sparsity.MatMul(jy, jx, 2, 3, 3))
	assert.Equal(t, sparsity.Pattern{{1}, {0}, {1}}, sparsity.MatTransMul(jy, sparsity.Pattern{{0}, {1}}, 2, 3, 2))
	assert.Equal(t, sparsity.Pattern{{0, 1}, {0, 2}}, sparsity.Union(jy, sparsity.Pattern{{0}}))
	assert.Equal(t, sparsity.Pattern{{1}, {0}, {1}}, sparsity.Transpose(jy, 3))
}
