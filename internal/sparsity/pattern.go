package sparsity

import "fmt"

// Pattern is a sparsity pattern: one column set per row.
type Pattern []Set

// New creates an empty pattern with the given number of rows.
func New(rows int) Pattern {
	return make(Pattern, rows)
}

// Identity returns the n×n identity pattern.
func Identity(n int) Pattern {
	p := New(n)
	for i := range p {
		p[i] = Set{i}
	}
	return p
}

// Clone returns a deep copy of the pattern.
func (p Pattern) Clone() Pattern {
	c := make(Pattern, len(p))
	for i, s := range p {
		c[i] = s.Clone()
	}
	return c
}

// NNZ returns the number of structural nonzeros.
func (p Pattern) NNZ() int {
	n := 0
	for _, s := range p {
		n += len(s)
	}
	return n
}

// IsEmpty reports whether the first rows rows hold no element.
func (p Pattern) IsEmpty(rows int) bool {
	mustHaveRows(p, rows)
	for i := range rows {
		if len(p[i]) > 0 {
			return false
		}
	}
	return true
}

// Equal reports whether both patterns have the same rows and elements.
// A nil row equals an empty row.
func Equal(a, b Pattern) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) && (len(a[i]) != 0 || len(b[i]) != 0) {
			return false
		}
	}
	return true
}

// Indexes lists the nonzeros of p in row-major order.
func Indexes(p Pattern) (rows, cols []int) {
	nnz := p.NNZ()
	rows = make([]int, 0, nnz)
	cols = make([]int, 0, nnz)
	for i, s := range p {
		for _, j := range s {
			rows = append(rows, i)
			cols = append(cols, j)
		}
	}
	return rows, cols
}

// FromIndexes builds a pattern with nRows rows from coordinate lists.
func FromIndexes(rows, cols []int, nRows int) Pattern {
	if len(rows) != len(cols) {
		panic(fmt.Sprintf("sparsity: %d row indexes for %d column indexes", len(rows), len(cols)))
	}
	p := New(nRows)
	for e := range rows {
		p[rows[e]].Insert(cols[e])
	}
	return p
}

func mustHaveRows(p Pattern, rows int) {
	if len(p) < rows {
		panic(fmt.Sprintf("sparsity: pattern has %d rows, %d required", len(p), rows))
	}
}
