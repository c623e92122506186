package sparsity

import "fmt"

// IsIdentity reports whether row i of p is exactly {i} for every i < rows.
func IsIdentity(p Pattern, rows int) bool {
	mustHaveRows(p, rows)
	for i := range rows {
		if len(p[i]) != 1 || p[i][0] != i {
			return false
		}
	}
	return true
}

// Transpose returns the cols×rows transpose of the first rows rows of p.
func Transpose(p Pattern, rows, cols int) Pattern {
	t := New(cols)
	TransposeInto(p, rows, t)
	return t
}

// TransposeInto adds the transpose of the first rows rows of p to dst.
// Columns of p without a row in dst are outside the transposed block and
// are ignored.
func TransposeInto(p Pattern, rows int, dst Pattern) {
	mustHaveRows(p, rows)
	for i := range rows {
		for _, j := range p[i] {
			if j >= len(dst) {
				break
			}
			dst[j].Insert(i)
		}
	}
}

// AddInto computes result += a.
func AddInto(a Pattern, result Pattern) {
	if len(a) != len(result) {
		panic(fmt.Sprintf("sparsity: cannot add %d rows to %d rows", len(a), len(result)))
	}
	for i := range a {
		result[i].InsertAll(a[i])
	}
}

// Union returns a new pattern holding a ∪ b row by row.
func Union(a, b Pattern) Pattern {
	r := New(max(len(a), len(b)))
	for i := range r {
		if i < len(a) {
			r[i].InsertAll(a[i])
		}
		if i < len(b) {
			r[i].InsertAll(b[i])
		}
	}
	return r
}

// MatMul computes result += A·B where A is m×n and B is n×q.
//
// An identity B short-circuits to a copy of A.
func MatMul(a, b, result Pattern, m, n, q int) {
	mustHaveRows(a, m)
	mustHaveRows(b, n)
	mustHaveRows(result, m)

	if n == q && IsIdentity(b, n) {
		for i := range m {
			result[i].InsertAll(a[i])
		}
		return
	}

	bt := Transpose(b, n, q)
	for j := range q {
		col := bt[j]
		if len(col) == 0 {
			continue
		}
		for i := range m {
			if Intersects(a[i], col) {
				result[i].Insert(j)
			}
		}
	}
}

// MatTransMul computes result += Aᵗ·B where A is m×n, B is m×q and the
// result is n×q.
//
// An empty B returns immediately; identity A or B short-circuit.
func MatTransMul(a, b, result Pattern, m, n, q int) {
	mustHaveRows(a, m)
	mustHaveRows(b, m)
	mustHaveRows(result, n)

	if b.IsEmpty(m) {
		return
	}
	if m == n && IsIdentity(a, m) {
		for i := range n {
			result[i].InsertAll(b[i])
		}
		return
	}
	if m == q && IsIdentity(b, m) {
		TransposeInto(a, m, result)
		return
	}

	at := Transpose(a, m, n)
	bt := Transpose(b, m, q)
	for j := range q {
		col := bt[j]
		if len(col) == 0 {
			continue
		}
		for i := range n {
			if Intersects(at[i], col) {
				result[i].Insert(j)
			}
		}
	}
}

// MatMulTrans computes rT += (A·B)ᵗ from the transpose of A, where A is m×n,
// B is n×q, aT is n×m and rT is q×m.
//
// An empty B returns immediately; an identity A short-circuits to the
// transpose of B.
func MatMulTrans(aT, b, rT Pattern, m, n, q int) {
	mustHaveRows(aT, n)
	mustHaveRows(b, n)
	mustHaveRows(rT, q)

	if b.IsEmpty(n) {
		return
	}
	if m == n && IsIdentity(aT, n) {
		TransposeInto(b, n, rT)
		return
	}

	a := Transpose(aT, n, m)
	bt := Transpose(b, n, q)
	for j := range q {
		col := bt[j]
		if len(col) == 0 {
			continue
		}
		for i := range m {
			if Intersects(a[i], col) {
				rT[j].Insert(i)
			}
		}
	}
}
