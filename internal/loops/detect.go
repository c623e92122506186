package loops

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/born-ml/adcg/internal/sparsity"
	"github.com/born-ml/adcg/internal/tape"
)

// ErrInvalidCandidates reports related dependent candidates that do not fit the tape.
var ErrInvalidCandidates = errors.New("loops: invalid related dependents")

// Detection is the result of loop pattern detection.
type Detection struct {
	// Loops holds the detected loops in order of their first candidate set.
	Loops []*Model

	// LoopFree computes the original dependents outside every loop followed
	// by the temporaries used by loop equations.
	LoopFree *tape.Tape

	// OrigDependents lists the original dependents computed by LoopFree in
	// ascending order.
	OrigDependents []int

	// TemporaryCount is the number of temporaries computed by LoopFree.
	TemporaryCount int
}

// equation is one structurally repeated original dependent.
type equation struct {
	iterations sparsity.Set
	orig       []int
	exprs      []*tape.Expr // nil where absent
	ref        *tape.Expr
}

// Detect finds loops in t from candidate sets of related dependents. The
// i-th smallest dependent of a set is the instance of iteration i.
//
// Dependents whose expression differs in structure from the most frequent
// one of their set stay out of the loop, which leaves the equation absent from that
// iteration. Equations sharing the same iteration count share one loop.
// Sub-expressions reading the same x elements in every iteration are computed
// once by the loop-free tape and read by the loops as temporaries.
func Detect(t *tape.Tape, related [][]int, logger *slog.Logger) (*Detection, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	eqs, err := matchCandidates(t, related, logger)
	if err != nil {
		return nil, err
	}

	claimed := make(map[int]bool)
	var counts []int
	byCount := make(map[int][]*equation)
	for _, e := range eqs {
		n := len(e.orig)
		if _, ok := byCount[n]; !ok {
			counts = append(counts, n)
		}
		byCount[n] = append(byCount[n], e)
		for _, o := range e.orig {
			if o >= 0 {
				claimed[o] = true
			}
		}
	}

	temps := newTemporaries()
	d := &Detection{}
	for id, n := range counts {
		l := buildLoop(id, n, byCount[n], temps)
		logger.Debug("loop detected",
			"loop", id,
			"iterations", n,
			"equations", l.EquationCount(),
			"groups", len(l.groups),
			"indexed", len(l.indexed),
			"non_indexed", len(l.nonIndexed),
			"temporaries", len(l.temporaries))
		d.Loops = append(d.Loops, l)
	}

	vars := make([]tape.Var, 0, t.Range()+len(temps.vars))
	for i := range t.Range() {
		if !claimed[i] {
			d.OrigDependents = append(d.OrigDependents, i)
			vars = append(vars, t.DependentVar(i))
		}
	}
	vars = append(vars, temps.vars...)
	d.LoopFree = t.Subset(vars)
	d.TemporaryCount = len(temps.vars)
	return d, nil
}

func matchCandidates(t *tape.Tape, related [][]int, logger *slog.Logger) ([]*equation, error) {
	seen := make(map[int]bool)
	var eqs []*equation
	for c, candidate := range related {
		deps := sparsity.NewSet(candidate...)
		for _, dep := range deps {
			if dep < 0 || dep >= t.Range() {
				return nil, fmt.Errorf("%w: set %d: dependent %d outside [0, %d)", ErrInvalidCandidates, c, dep, t.Range())
			}
			if seen[dep] {
				return nil, fmt.Errorf("%w: set %d: dependent %d is in more than one set", ErrInvalidCandidates, c, dep)
			}
			seen[dep] = true
		}
		if len(deps) < 2 {
			logger.Debug("candidate set ignored", "set", c, "size", len(deps))
			continue
		}

		exprs := make([]*tape.Expr, len(deps))
		sigs := make([]string, len(deps))
		for it, dep := range deps {
			exprs[it] = t.Expression(t.DependentVar(dep))
			sigs[it] = exprs[it].Signature()
		}
		ref := referenceIteration(sigs)

		e := &equation{
			orig:  make([]int, len(deps)),
			exprs: make([]*tape.Expr, len(deps)),
			ref:   exprs[ref],
		}
		for it, dep := range deps {
			e.orig[it] = -1
			if sigs[it] != sigs[ref] {
				logger.Debug("dependent left out of loop", "set", c, "dependent", dep, "iteration", it)
				continue
			}
			e.orig[it] = dep
			e.exprs[it] = exprs[it]
			e.iterations = append(e.iterations, it)
		}
		if len(e.iterations) < 2 {
			logger.Debug("candidate set has no repeated structure", "set", c)
			continue
		}
		eqs = append(eqs, e)
	}
	return eqs, nil
}

// referenceIteration returns the first iteration holding the most frequent
// signature of a candidate set.
func referenceIteration(sigs []string) int {
	count := make(map[string]int, len(sigs))
	first := make(map[string]int, len(sigs))
	ref := 0
	for it, sig := range sigs {
		if _, ok := first[sig]; !ok {
			first[sig] = it
		}
		count[sig]++
		if count[sig] > count[sigs[ref]] {
			ref = first[sig]
		}
	}
	return ref
}

// temporaries numbers the non-indexed sub-expressions of all loops.
type temporaries struct {
	byKey map[string]int
	vars  []tape.Var
}

func newTemporaries() *temporaries {
	return &temporaries{byKey: make(map[string]int)}
}

func (t *temporaries) index(e *tape.Expr) int {
	key := e.String()
	if k, ok := t.byKey[key]; ok {
		return k
	}
	k := len(t.vars)
	t.byKey[key] = k
	t.vars = append(t.vars, e.Var)
	return k
}

// loopBuilder walks the reference expression of every loop equation twice:
// once to register the loop tape independents and once to record the tape.
type loopBuilder struct {
	l     *Model
	temps *temporaries

	slots  [][][]int // per equation, per leaf slot, x element per iteration
	leaves map[*tape.Expr]int

	indexedByKey  map[string]int
	nonIndexedByX map[int]int
	tempByK       map[int]bool

	rec  *tape.Recorder
	vars []tape.Var // recorded independents by tape position
}

func buildLoop(id, iterations int, eqs []*equation, temps *temporaries) *Model {
	b := &loopBuilder{
		l:             &Model{ID: id, iterationCount: iterations},
		temps:         temps,
		leaves:        make(map[*tape.Expr]int),
		indexedByKey:  make(map[string]int),
		nonIndexedByX: make(map[int]int),
		tempByK:       make(map[int]bool),
	}

	groups := make(map[string]int)
	for tapeI, e := range eqs {
		b.l.equations = append(b.l.equations, e.orig)
		key := fmt.Sprint(e.iterations)
		g, ok := groups[key]
		if !ok {
			g = len(b.l.groups)
			groups[key] = g
			b.l.groups = append(b.l.groups, IterEquationGroup{Iterations: e.iterations})
		}
		b.l.groups[g].TapeI.Insert(tapeI)
		b.slots = append(b.slots, leafSlots(e, iterations))
	}
	slices.SortFunc(b.l.groups, func(a, c IterEquationGroup) int {
		return sparsity.Compare(a.Iterations, c.Iterations)
	})

	// register independents
	for tapeI, e := range eqs {
		slot := 0
		b.walk(tapeI, e.ref, &slot)
	}
	b.declare()

	// record the loop tape
	ys := make([]tape.Var, len(eqs))
	for tapeI, e := range eqs {
		slot := 0
		ys[tapeI] = b.walk(tapeI, e.ref, &slot)
	}
	b.l.tape = b.rec.Dependent(ys...)
	return b.l
}

// leafSlots lists the x element read by every independent leaf of the
// equation in each iteration, in pre-order.
func leafSlots(e *equation, iterations int) [][]int {
	var slots [][]int
	for it, ex := range e.exprs {
		if ex == nil {
			continue
		}
		var xs []int
		collectLeaves(ex, &xs)
		if slots == nil {
			slots = make([][]int, len(xs))
			for s := range slots {
				slots[s] = slices.Repeat([]int{-1}, iterations)
			}
		}
		for s, x := range xs {
			slots[s][it] = x
		}
	}
	return slots
}

func collectLeaves(e *tape.Expr, xs *[]int) {
	if e.IsIndependent() {
		*xs = append(*xs, e.Independent)
		return
	}
	for _, a := range e.Args {
		collectLeaves(a, xs)
	}
}

func (b *loopBuilder) leafCount(e *tape.Expr) int {
	if n, ok := b.leaves[e]; ok {
		return n
	}
	n := 0
	if e.IsIndependent() {
		n = 1
	}
	for _, a := range e.Args {
		n += b.leafCount(a)
	}
	b.leaves[e] = n
	return n
}

// fixed returns the x element of a slot read in every present iteration, or
// -1 if it changes with the iteration.
func fixed(elems []int) int {
	x := -1
	for _, v := range elems {
		switch {
		case v < 0:
		case x < 0:
			x = v
		case v != x:
			return -1
		}
	}
	return x
}

func (b *loopBuilder) walk(tapeI int, e *tape.Expr, slot *int) tape.Var {
	slots := b.slots[tapeI]
	if e.Op != nil {
		if n := b.leafCount(e); n > 0 && b.allFixed(slots[*slot:*slot+n]) {
			*slot += n
			return b.temporary(b.temps.index(e))
		}
		args := make([]tape.Var, len(e.Args))
		for i, a := range e.Args {
			args[i] = b.walk(tapeI, a, slot)
		}
		if b.rec == nil {
			return 0
		}
		return b.rec.Apply(e.Op, args...)
	}

	if e.IsConstant() {
		if b.rec == nil {
			return 0
		}
		return b.rec.Const(e.Value)
	}

	elems := slots[*slot]
	*slot++
	if x := fixed(elems); x >= 0 {
		return b.nonIndexed(x)
	}
	return b.indexed(elems)
}

func (b *loopBuilder) allFixed(slots [][]int) bool {
	for _, s := range slots {
		if fixed(s) < 0 {
			return false
		}
	}
	return true
}

func (b *loopBuilder) indexed(elems []int) tape.Var {
	key := fmt.Sprint(elems)
	i, ok := b.indexedByKey[key]
	if !ok {
		i = len(b.l.indexed)
		b.indexedByKey[key] = i
		b.l.indexed = append(b.l.indexed, IndexedPosition{Original: elems})
	}
	return b.independent(b.l.indexed[i].Tape)
}

func (b *loopBuilder) nonIndexed(x int) tape.Var {
	i, ok := b.nonIndexedByX[x]
	if !ok {
		i = len(b.l.nonIndexed)
		b.nonIndexedByX[x] = i
		b.l.nonIndexed = append(b.l.nonIndexed, Position{Original: x})
	}
	return b.independent(b.l.nonIndexed[i].Tape)
}

func (b *loopBuilder) temporary(k int) tape.Var {
	if b.rec != nil {
		return b.independent(b.l.TempIndepIndex(k).Tape)
	}
	if !b.tempByK[k] {
		b.tempByK[k] = true
		b.l.temporaries = append(b.l.temporaries, Position{Original: k})
	}
	return 0
}

// independent returns the recorded independent at pos; positions are only
// known once declare ran.
func (b *loopBuilder) independent(pos int) tape.Var {
	if b.rec == nil {
		return 0
	}
	return b.vars[pos]
}

// declare assigns loop tape positions: indexed, non-indexed, then temporaries.
func (b *loopBuilder) declare() {
	slices.SortFunc(b.l.temporaries, func(a, c Position) int { return a.Original - c.Original })

	pos := 0
	for i := range b.l.indexed {
		b.l.indexed[i].Tape = pos
		pos++
	}
	for i := range b.l.nonIndexed {
		b.l.nonIndexed[i].Tape = pos
		pos++
	}
	for i := range b.l.temporaries {
		b.l.temporaries[i].Tape = pos
		pos++
	}

	b.rec = tape.NewRecorder()
	b.vars = b.rec.Independent(pos)
}

// RelatedCandidates returns the related dependent sets of a model made of
// repeat copies of an m-equation block: set i holds equation i of every copy.
func RelatedCandidates(m, repeat int) [][]int {
	related := make([][]int, m)
	for i := range related {
		related[i] = make([]int, repeat)
		for r := range repeat {
			related[i][r] = r*m + i
		}
	}
	return related
}
