package loopfree

import (
	"github.com/born-ml/adcg/internal/graph"
	"github.com/born-ml/adcg/internal/loops"
	"github.com/born-ml/adcg/internal/sparsity"
)

// SparseRows holds symbolic matrix entries by row and column.
type SparseRows []map[int]graph.Value

// NewSparseRows creates n empty rows.
func NewSparseRows(n int) SparseRows {
	r := make(SparseRows, n)
	for i := range r {
		r[i] = make(map[int]graph.Value)
	}
	return r
}

// Pattern returns the sparsity of the stored entries.
func (r SparseRows) Pattern() sparsity.Pattern {
	p := sparsity.New(len(r))
	for i, row := range r {
		for j := range row {
			p[i].Insert(j)
		}
	}
	return p
}

// LoopHessianInfo carries the loop side values needed to combine a loop with
// the loop-free model.
type LoopHessianInfo struct {
	Loop  *loops.Model
	Index graph.NodeID

	// Weights holds the Hessian weight of every loop equation. Nil when no
	// Hessian is required for the loop.
	Weights []graph.Value

	// DyiDzk holds, per loop equation, the derivative with respect to the
	// temporaries it reads.
	DyiDzk []map[int]graph.Value

	// WNoLoop is the weight of each temporary accumulated over the loop
	// equations. Set by CalculateJacobianHessianUsedByLoops.
	WNoLoop map[int]graph.Value

	// HessTempsSparsity is the Hessian sparsity of the temporaries the loop
	// reads with a nonzero weight. Set by CalculateJacobianHessianUsedByLoops.
	HessTempsSparsity sparsity.Pattern

	// DzDxx is the second order contribution of the temporaries to the
	// Hessian, per x row and column, within HessTempsSparsity. Set by
	// CalculateJacobianHessianUsedByLoops.
	DzDxx SparseRows
}

// LoopDerivatives holds the loop-free derivatives used by loops.
type LoopDerivatives struct {
	// TempJacobian holds dz/dx per temporary.
	TempJacobian SparseRows

	// LoopHessians holds DzDxx of every loop, in input order.
	LoopHessians []SparseRows
}

// CalculateJacobianHessianUsedByLoops computes the Jacobian of the
// temporaries and, for every loop with weights, the Hessian of the
// temporaries weighted by the loop equations reading them.
//
// The weight of temporary k in a loop is the sum over equation groups of
// sum_i dy_i/dz_k * w_i, restricted to the iterations of the group.
// The temporary Hessian is evaluated once per loop on the union of the
// Hessian sparsity of the temporaries each loop reads, and the elements of
// the loop's own pattern are stored in its info record.
func (m *Model) CalculateJacobianHessianUsedByLoops(g *graph.Manager, infos []*LoopHessianInfo, x []graph.Value) LoopDerivatives {
	mo := len(m.dependentIndexes)
	nz := m.TemporaryDependentCount()
	res := LoopDerivatives{
		TempJacobian: NewSparseRows(nz),
		LoopHessians: make([]SparseRows, len(infos)),
	}
	n := m.tape.Domain()
	if nz == 0 {
		for i, info := range infos {
			info.WNoLoop = map[int]graph.Value{}
			info.HessTempsSparsity = sparsity.New(n)
			info.DzDxx = NewSparseRows(n)
			res.LoopHessians[i] = info.DzDxx
		}
		return res
	}

	m.EvalJacobianSparsity()
	jac := m.JacobianSparsity()
	var rows, cols []int
	for k := range nz {
		for _, j := range jac[mo+k] {
			rows = append(rows, mo+k)
			cols = append(cols, j)
		}
	}
	for e, v := range m.tape.SparseJacobian(g, x, rows, cols) {
		if !v.IsZero() {
			res.TempJacobian[rows[e]-mo][cols[e]] = v
		}
	}

	evalHess := sparsity.New(n)
	for i, info := range infos {
		info.DzDxx = NewSparseRows(n)
		info.WNoLoop = m.temporaryWeights(g, info)
		info.HessTempsSparsity = m.loopTempsHessianSparsity(info)
		sparsity.AddInto(info.HessTempsSparsity, evalHess)
		res.LoopHessians[i] = info.DzDxx
	}
	if evalHess.NNZ() == 0 {
		return res
	}

	rows, cols := sparsity.Indexes(evalHess)
	for _, info := range infos {
		if info.HessTempsSparsity.NNZ() > 0 {
			m.generateLoopHessian(g, info, x, rows, cols)
		}
	}
	return res
}

// loopTempsHessianSparsity returns the Hessian sparsity of the temporaries
// with a nonzero weight in the loop.
func (m *Model) loopTempsHessianSparsity(info *LoopHessianInfo) sparsity.Pattern {
	mo := len(m.dependentIndexes)
	var eqs sparsity.Set
	for k, v := range info.WNoLoop {
		if !v.IsZero() {
			eqs.Insert(mo + k)
		}
	}
	switch len(eqs) {
	case 0:
		return sparsity.New(m.tape.Domain())
	case m.TemporaryDependentCount():
		m.EvalHessianSparsity()
		return m.HessianTempEqsSparsity().Clone()
	}
	return m.tape.HessianSparsity(eqs)
}

func (m *Model) temporaryWeights(g *graph.Manager, info *LoopHessianInfo) map[int]graph.Value {
	w := make(map[int]graph.Value)
	if info.Weights == nil {
		return w
	}
	l := info.Loop
	for _, pos := range l.TemporaryIndependents() {
		k := pos.Original
		var total graph.Value
		for _, group := range l.EquationGroups() {
			terms := make([]graph.Value, 0, len(group.TapeI))
			for _, tapeI := range group.TapeI {
				terms = append(terms, g.Mul(info.DyiDzk[tapeI][k], info.Weights[tapeI]))
			}
			v := CreateConditionalOperation(g, group.Iterations, l.IterationCount(), g.Sum(terms...), info.Index)
			total = g.Add(total, v)
		}
		w[k] = total
	}
	return w
}

// generateLoopHessian evaluates the temporary Hessian weighted by the loop
// at the elements rows/cols and keeps those of the loop's own pattern.
func (m *Model) generateLoopHessian(g *graph.Manager, info *LoopHessianInfo, x []graph.Value, rows, cols []int) {
	mo := len(m.dependentIndexes)
	w := make([]graph.Value, m.tape.Range())
	for k, v := range info.WNoLoop {
		w[mo+k] = v
	}
	own := info.HessTempsSparsity
	for e, v := range m.tape.SparseHessian(g, x, w, rows, cols) {
		if !v.IsZero() && own[rows[e]].Contains(cols[e]) {
			info.DzDxx[rows[e]][cols[e]] = v
		}
	}
}

// CalculateHessianForOriginalEquations adds the Hessian of the original
// dependents weighted by w, indexed by original dependent, to hess. Each
// nonzero (a, b) of the original equation sparsity is added at every
// position listed in locations[a][b].
func (m *Model) CalculateHessianForOriginalEquations(g *graph.Manager, x, w []graph.Value, locations []map[int][]int, hess []graph.Value) {
	local := make([]graph.Value, m.tape.Range())
	for li, orig := range m.dependentIndexes {
		local[li] = w[orig]
	}

	m.EvalHessianSparsity()
	rows, cols := sparsity.Indexes(m.HessianOrigEqsSparsity())
	values := m.tape.SparseHessian(g, x, local, rows, cols)
	for e, v := range values {
		if v.IsZero() {
			continue
		}
		for _, loc := range locations[rows[e]][cols[e]] {
			hess[loc] = g.Add(hess[loc], v)
		}
	}
}
