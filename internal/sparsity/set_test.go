package sparsity

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_Insert(t *testing.T) {
	var s Set
	for _, v := range []int{5, 1, 3, 5, 0, 9} {
		s.Insert(v)
	}
	assert.Equal(t, Set{0, 1, 3, 5, 9}, s)
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(4))
	assert.Equal(t, 0, s.Min())
	assert.Equal(t, 9, s.Max())
}

func TestSet_Operations(t *testing.T) {
	a := NewSet(4, 1, 7, 1)
	b := NewSet(2, 4, 8)
	assert.Equal(t, Set{1, 4, 7}, a)
	assert.Equal(t, Set{1, 2, 4, 7, 8}, a.Union(b))
	assert.Equal(t, Set{4}, a.Intersection(b))
	assert.Equal(t, Set{3, 4, 5}, Range(3, 6))
	assert.Nil(t, Range(3, 3))

	c := a.Clone()
	c.InsertAll(Set{0, 9})
	assert.Equal(t, Set{0, 1, 4, 7, 9}, c)
	assert.Equal(t, Set{1, 4, 7}, a)
}

func TestIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b Set
		want bool
	}{
		{"disjoint ranges", Set{1, 2}, Set{5, 6}, false},
		{"interleaved", Set{1, 3, 5}, Set{2, 4, 6}, false},
		{"shared element", Set{1, 3, 5}, Set{0, 5}, true},
		{"small against large", Set{7}, Range(0, 100), true},
		{"empty", Set{1}, nil, false},
		{"both empty", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Intersects(tt.a, tt.b))
			assert.Equal(t, tt.want, Intersects(tt.b, tt.a))
		})
	}
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare(Set{9}, Set{0, 1}))
	assert.Equal(t, 1, Compare(Set{0, 1}, Set{9}))
	assert.Equal(t, -1, Compare(Set{0, 2}, Set{0, 3}))
	assert.Equal(t, 0, Compare(Set{1, 2}, Set{1, 2}))
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, Pattern{{0, 2}, {1}}, "jac"))
	assert.Equal(t, "jac  sparsity:\n 0: 0   2 \n 1:   1 \n\n", buf.String())
}
