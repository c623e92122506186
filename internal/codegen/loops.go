package codegen

import (
	"maps"
	"slices"

	"github.com/born-ml/adcg/internal/graph"
	"github.com/born-ml/adcg/internal/jobtimer"
	"github.com/born-ml/adcg/internal/loopfree"
	"github.com/born-ml/adcg/internal/loops"
	"github.com/born-ml/adcg/internal/sparsity"
)

// loopContext holds the loop side values of one loop.
type loopContext struct {
	l     *loops.Model
	index graph.NodeID
	u     []graph.Value // loop tape independents

	dH   loopfree.SparseRows // per equation, derivative by loop tape independent
	info *loopfree.LoopHessianInfo

	// indexed holds the x element read in each iteration by an indexed loop
	// tape independent.
	indexed map[int][]int

	// fixed holds, per loop tape independent, the x elements it depends on
	// in every iteration, and fixedCoef the matching first derivatives.
	fixed     sparsity.Pattern
	fixedCoef []map[int]graph.Value
}

func newLoopContext(g *graph.Manager, l *loops.Model) *loopContext {
	c := &loopContext{
		l:     l,
		index: g.NewIndex(),
		u:     make([]graph.Value, l.Tape().Domain()),
	}
	for _, p := range l.IndexedIndependents() {
		c.u[p.Tape] = g.IndexedVariable(graph.ArrayX, c.index, p.Original)
	}
	for _, p := range l.NonIndexedIndependents() {
		c.u[p.Tape] = g.Variable(graph.ArrayX, p.Original)
	}
	for _, p := range l.TemporaryIndependents() {
		c.u[p.Tape] = g.Variable(graph.ArrayZ, p.Original)
	}
	c.info = &loopfree.LoopHessianInfo{Loop: l, Index: c.index}
	return c
}

// differentiate computes the first derivatives of the loop equations and
// the Hessian weights of the loop when withWeights is set.
func (c *loopContext) differentiate(g *graph.Manager, withWeights bool) {
	h := c.l.Tape()
	rows, cols := sparsity.Indexes(h.JacobianSparsity())
	c.dH = loopfree.NewSparseRows(h.Range())
	for e, v := range h.SparseJacobian(g, c.u, rows, cols) {
		if !v.IsZero() {
			c.dH[rows[e]][cols[e]] = v
		}
	}

	c.info.DyiDzk = make([]map[int]graph.Value, h.Range())
	for tapeI := range c.info.DyiDzk {
		c.info.DyiDzk[tapeI] = make(map[int]graph.Value)
		for _, p := range c.l.TemporaryIndependents() {
			if v, ok := c.dH[tapeI][p.Tape]; ok {
				c.info.DyiDzk[tapeI][p.Original] = v
			}
		}
		if withWeights {
			w := g.IndexedVariable(graph.ArrayW, c.index, c.l.DependentOrigIndexes(tapeI))
			c.info.Weights = append(c.info.Weights, w)
		}
	}
}

// expand sets the x dependencies of every loop tape independent once the
// temporary Jacobian is known.
func (c *loopContext) expand(tempJac loopfree.SparseRows) {
	one := graph.Const(1)
	c.indexed = make(map[int][]int)
	c.fixed = sparsity.New(len(c.u))
	c.fixedCoef = make([]map[int]graph.Value, len(c.u))
	for _, p := range c.l.IndexedIndependents() {
		c.indexed[p.Tape] = p.Original
	}
	for _, p := range c.l.NonIndexedIndependents() {
		c.fixed[p.Tape] = sparsity.Set{p.Original}
		c.fixedCoef[p.Tape] = map[int]graph.Value{p.Original: one}
	}
	for _, p := range c.l.TemporaryIndependents() {
		row := tempJac[p.Original]
		c.fixed[p.Tape] = sparsity.NewSet(sortedKeys(row)...)
		c.fixedCoef[p.Tape] = row
	}
}

// fixedSum returns the sum of coef(p) * du_p/dx_a over the loop tape
// independents p in ps with a fixed dependency on x element a.
func (c *loopContext) fixedSum(g *graph.Manager, a int, ps []int, coef func(p int) graph.Value) graph.Value {
	var terms []graph.Value
	for _, p := range ps {
		if d, ok := c.fixedCoef[p][a]; ok {
			terms = append(terms, g.Mul(coef(p), d))
		}
	}
	return g.Sum(terms...)
}

// locations maps the element (row(it), col(it)) of every iteration where
// the equation exists.
func (c *loopContext) locations(origs []int, at func(it int) int) []int {
	locs := make([]int, c.l.IterationCount())
	for it := range locs {
		locs[it] = -1
		if origs[it] >= 0 {
			locs[it] = at(it)
		}
	}
	return locs
}

// generateWithLoops builds the outputs from the loop-free model and the
// detected loops.
func (gen *Generator) generateWithLoops(s *session, d *loops.Detection) {
	g := s.g
	free := loopfree.New(d.LoopFree, d.OrigDependents)
	s.res.Loops = d.Loops
	mo := len(d.OrigDependents)

	stop := gen.opts.Timer.Start(jobtimer.PhaseZeroOrder)
	gy := d.LoopFree.Replay(g, s.x)
	for li, orig := range d.OrigDependents {
		s.res.Zero.add(orig, gy[li])
	}
	s.res.Temporaries = gy[mo:]

	ctxs := make([]*loopContext, len(d.Loops))
	for i, l := range d.Loops {
		c := newLoopContext(g, l)
		ctxs[i] = c
		for tapeI, y := range l.Tape().Replay(g, c.u) {
			s.res.Zero.addLooped(l.ID, c.index, y, l.DependentOrigIndexes(tapeI))
		}
	}
	stop()

	if s.res.Jacobian == nil && s.res.Hessian == nil {
		return
	}

	stop = gen.opts.Timer.Start(jobtimer.PhaseJacobian)
	infos := make([]*loopfree.LoopHessianInfo, len(ctxs))
	for i, c := range ctxs {
		c.differentiate(g, s.res.Hessian != nil)
		infos[i] = c.info
	}
	derivs := free.CalculateJacobianHessianUsedByLoops(g, infos, s.x)
	for _, c := range ctxs {
		c.expand(derivs.TempJacobian)
	}
	if s.res.Jacobian != nil {
		gen.loopJacobian(s, free, ctxs)
	}
	stop()

	if s.res.Hessian != nil {
		stop := gen.opts.Timer.Start(jobtimer.PhaseHessian)
		gen.loopHessian(s, free, ctxs, derivs)
		stop()
	}
}

func (gen *Generator) loopJacobian(s *session, free *loopfree.Model, ctxs []*loopContext) {
	g, jac := s.g, s.res.Jacobian
	origs := free.OrigDependentIndexes()

	free.EvalJacobianSparsity()
	p := free.JacobianSparsity()
	var rows, cols []int
	for li := range origs {
		for _, j := range p[li] {
			rows = append(rows, li)
			cols = append(cols, j)
		}
	}
	for e, v := range free.Tape().SparseJacobian(g, s.x, rows, cols) {
		jac.add(s.jacLoc.at(origs[rows[e]], cols[e]), v)
	}

	n := s.f.Domain()
	for _, c := range ctxs {
		// x elements reached through non-indexed independents and temporaries
		eqs := c.l.EquationCount()
		jx := sparsity.New(eqs)
		sparsity.MatMul(c.dH.Pattern(), c.fixed, jx, eqs, len(c.u), n)

		for tapeI, dy := range c.dH {
			eqOrigs := c.l.DependentOrigIndexes(tapeI)
			ps := sortedKeys(dy)
			for _, p := range ps {
				elems, ok := c.indexed[p]
				if !ok {
					continue
				}
				locs := c.locations(eqOrigs, func(it int) int {
					return s.jacLoc.at(eqOrigs[it], elems[it])
				})
				jac.addLooped(c.l.ID, c.index, dy[p], locs)
			}
			for _, j := range jx[tapeI] {
				v := c.fixedSum(g, j, ps, func(p int) graph.Value { return dy[p] })
				locs := c.locations(eqOrigs, func(it int) int {
					return s.jacLoc.at(eqOrigs[it], j)
				})
				jac.addLooped(c.l.ID, c.index, v, locs)
			}
		}
	}
	gen.logger.Debug("jacobian generated", "elements", jac.Size, "direct", len(jac.Direct), "looped", len(jac.Looped))
}

func (gen *Generator) loopHessian(s *session, free *loopfree.Model, ctxs []*loopContext, derivs loopfree.LoopDerivatives) {
	g, hes := s.g, s.res.Hessian
	w := g.Variables(graph.ArrayW, s.f.Range())

	locations := make([]map[int][]int, s.f.Domain())
	for a := range locations {
		locations[a] = make(map[int][]int)
	}
	for e := range hes.Rows {
		locations[hes.Rows[e]][hes.Cols[e]] = []int{e}
	}
	direct := make([]graph.Value, hes.Size)
	free.CalculateHessianForOriginalEquations(g, s.x, w, locations, direct)
	for e, v := range direct {
		hes.add(e, v)
	}

	for i, c := range ctxs {
		h := c.l.Tape()
		for tapeI := range h.Range() {
			gen.loopEquationHessian(s, c, tapeI)
		}

		// second order contribution of the temporaries
		dzDxx := derivs.LoopHessians[i]
		for a, row := range dzDxx {
			for _, b := range sortedKeys(row) {
				locs := slices.Repeat([]int{s.hesLoc.at(a, b)}, c.l.IterationCount())
				hes.addLooped(c.l.ID, c.index, row[b], locs)
			}
		}
	}
	gen.logger.Debug("hessian generated", "elements", hes.Size, "direct", len(hes.Direct), "looped", len(hes.Looped))
}

// loopEquationHessian adds the Hessian of loop equation tapeI, weighted by
// its w element, to the output. Pairs of loop tape independents reading
// fixed x elements are mapped to x by composing the loop Hessian pattern
// with the fixed dependency pattern; pairs with an indexed independent keep
// the x element of each iteration.
func (gen *Generator) loopEquationHessian(s *session, c *loopContext, tapeI int) {
	g, hes := s.g, s.res.Hessian
	h := c.l.Tape()
	nu, n := len(c.u), s.f.Domain()

	rows, cols := sparsity.Indexes(h.HessianSparsity(sparsity.Set{tapeI}))
	oneHot := make([]graph.Value, h.Range())
	oneHot[tapeI] = graph.Const(1)
	hu := loopfree.NewSparseRows(nu)
	for e, v := range h.SparseHessian(g, c.u, oneHot, rows, cols) {
		if !v.IsZero() {
			hu[rows[e]][cols[e]] = g.Mul(c.info.Weights[tapeI], v)
		}
	}
	huP := hu.Pattern()

	// hu is symmetric, so it serves as its own transpose
	hf := sparsity.New(nu) // (u, x) through a fixed column
	sparsity.MatMul(huP, c.fixed, hf, nu, nu, n)
	fh := sparsity.New(n) // (x, u) through a fixed row
	sparsity.MatMulTrans(huP, c.fixed, fh, nu, nu, n)
	xx := sparsity.New(n)
	sparsity.MatTransMul(c.fixed, hf, xx, nu, n, n)

	eqOrigs := c.l.DependentOrigIndexes(tapeI)
	add := func(v graph.Value, at func(it int) (int, int)) {
		locs := c.locations(eqOrigs, func(it int) int {
			return s.hesLoc.at(at(it))
		})
		hes.addLooped(c.l.ID, c.index, v, locs)
	}
	all := make([]int, nu)
	for p := range all {
		all[p] = p
	}

	for a, row := range xx {
		for _, b := range row {
			v := c.fixedSum(g, a, all, func(p int) graph.Value {
				return c.fixedSum(g, b, sortedKeys(hu[p]), func(q int) graph.Value { return hu[p][q] })
			})
			add(v, func(int) (int, int) { return a, b })
		}
	}

	for _, p := range sortedKeys(c.indexed) {
		elems := c.indexed[p]
		qs := sortedKeys(hu[p])
		for _, b := range hf[p] {
			v := c.fixedSum(g, b, qs, func(q int) graph.Value { return hu[p][q] })
			add(v, func(it int) (int, int) { return elems[it], b })
		}
		for _, q := range qs {
			if elemsQ, ok := c.indexed[q]; ok {
				add(hu[p][q], func(it int) (int, int) { return elems[it], elemsQ[it] })
			}
		}
	}

	for a, row := range fh {
		for _, q := range row {
			elems, ok := c.indexed[q]
			if !ok {
				continue
			}
			v := c.fixedSum(g, a, all, func(p int) graph.Value { return hu[p][q] })
			add(v, func(it int) (int, int) { return a, elems[it] })
		}
	}
}

func sortedKeys[V any](m map[int]V) []int {
	return slices.Sorted(maps.Keys(m))
}
