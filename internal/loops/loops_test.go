package loops

import (
	"testing"

	"github.com/born-ml/adcg/internal/graph"
	"github.com/born-ml/adcg/internal/sparsity"
	"github.com/born-ml/adcg/internal/tape"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockTape records three copies of
//
//	y[2r]   = x[r] * sin(x[3])
//	y[2r+1] = x[r] + x[3]*x[3]
//
// If broken is set, y[4] becomes x[2] - sin(x[3]).
func blockTape(broken bool) *tape.Tape {
	rec := tape.NewRecorder()
	x := rec.Independent(4)
	var ys []tape.Var
	for r := range 3 {
		if broken && r == 2 {
			ys = append(ys, rec.Sub(x[r], rec.Sin(x[3])))
		} else {
			ys = append(ys, rec.Mul(x[r], rec.Sin(x[3])))
		}
		ys = append(ys, rec.Add(x[r], rec.Mul(x[3], x[3])))
	}
	return rec.Dependent(ys...)
}

var blockPoint = []float64{0.5, -1.25, 2, 0.75}

// checkLoopValues evaluates every loop equation at every iteration from the
// loop positions and compares it with the original dependent.
func checkLoopValues(t *testing.T, f *tape.Tape, d *Detection, x []float64) {
	t.Helper()
	want, err := f.Forward(x)
	require.NoError(t, err)
	free, err := d.LoopFree.Forward(x)
	require.NoError(t, err)
	z := free[len(d.OrigDependents):]
	require.Len(t, z, d.TemporaryCount)

	for _, l := range d.Loops {
		for it := range l.IterationCount() {
			u := make([]float64, l.Tape().Domain())
			for _, p := range l.IndexedIndependents() {
				if p.Original[it] >= 0 {
					u[p.Tape] = x[p.Original[it]]
				}
			}
			for _, p := range l.NonIndexedIndependents() {
				u[p.Tape] = x[p.Original]
			}
			for _, p := range l.TemporaryIndependents() {
				u[p.Tape] = z[p.Original]
			}
			y, err := l.Tape().Forward(u)
			require.NoError(t, err)
			for tapeI := range l.EquationCount() {
				if orig := l.DependentOrigIndexes(tapeI)[it]; orig >= 0 {
					assert.InDelta(t, want[orig], y[tapeI], 1e-12, "loop %d equation %d iteration %d", l.ID, tapeI, it)
				}
			}
		}
	}
}

func TestDetect_FullPresence(t *testing.T) {
	f := blockTape(false)
	d, err := Detect(f, RelatedCandidates(2, 3), nil)
	require.NoError(t, err)

	require.Len(t, d.Loops, 1)
	l := d.Loops[0]
	assert.Equal(t, 3, l.IterationCount())
	assert.Equal(t, 2, l.EquationCount())
	assert.Equal(t, []int{0, 2, 4}, l.DependentOrigIndexes(0))
	assert.Equal(t, []int{1, 3, 5}, l.DependentOrigIndexes(1))

	wantGroups := []IterEquationGroup{{Iterations: sparsity.Set{0, 1, 2}, TapeI: sparsity.Set{0, 1}}}
	assert.Empty(t, cmp.Diff(wantGroups, l.EquationGroups()))

	assert.Equal(t, []IndexedPosition{{Tape: 0, Original: []int{0, 1, 2}}}, l.IndexedIndependents())
	assert.Empty(t, l.NonIndexedIndependents())
	assert.Equal(t, []Position{{Tape: 1, Original: 0}, {Tape: 2, Original: 1}}, l.TemporaryIndependents())
	assert.Equal(t, &Position{Tape: 2, Original: 1}, l.TempIndepIndex(1))
	assert.Nil(t, l.TempIndepIndex(5))

	assert.Empty(t, d.OrigDependents)
	assert.Equal(t, 2, d.TemporaryCount)
	assert.Equal(t, 2, d.LoopFree.Range())
	assert.Equal(t, "mul(x, x)", l.Tape().Expression(l.Tape().DependentVar(0)).Signature())

	checkLoopValues(t, f, d, blockPoint)
}

func TestDetect_PartialPresence(t *testing.T) {
	f := blockTape(true)
	d, err := Detect(f, RelatedCandidates(2, 3), nil)
	require.NoError(t, err)

	require.Len(t, d.Loops, 1)
	l := d.Loops[0]
	assert.Equal(t, []int{0, 2, -1}, l.DependentOrigIndexes(0))

	wantGroups := []IterEquationGroup{
		{Iterations: sparsity.Set{0, 1}, TapeI: sparsity.Set{0}},
		{Iterations: sparsity.Set{0, 1, 2}, TapeI: sparsity.Set{1}},
	}
	assert.Empty(t, cmp.Diff(wantGroups, l.EquationGroups()))
	assert.Len(t, l.IndexedIndependents(), 2)

	assert.Equal(t, []int{4}, d.OrigDependents)
	assert.Equal(t, 3, d.LoopFree.Range())

	checkLoopValues(t, f, d, blockPoint)
}

func TestDetect_GroupsOrderedByIterations(t *testing.T) {
	f := blockTape(true)
	d, err := Detect(f, [][]int{{1, 3, 5}, {0, 2, 4}}, nil)
	require.NoError(t, err)
	require.Len(t, d.Loops, 1)

	wantGroups := []IterEquationGroup{
		{Iterations: sparsity.Set{0, 1}, TapeI: sparsity.Set{1}},
		{Iterations: sparsity.Set{0, 1, 2}, TapeI: sparsity.Set{0}},
	}
	assert.Empty(t, cmp.Diff(wantGroups, d.Loops[0].EquationGroups()))
	checkLoopValues(t, f, d, blockPoint)
}

func TestDetect_FirstInstanceDiffers(t *testing.T) {
	rec := tape.NewRecorder()
	x := rec.Independent(5)
	ys := []tape.Var{rec.Sub(x[0], rec.Sin(x[4]))}
	for r := 1; r < 4; r++ {
		ys = append(ys, rec.Mul(x[r], rec.Sin(x[4])))
	}
	f := rec.Dependent(ys...)

	d, err := Detect(f, [][]int{{0, 1, 2, 3}}, nil)
	require.NoError(t, err)
	require.Len(t, d.Loops, 1)
	l := d.Loops[0]
	assert.Equal(t, 4, l.IterationCount())
	assert.Equal(t, []int{-1, 1, 2, 3}, l.DependentOrigIndexes(0))
	assert.Equal(t, []IndexedPosition{{Tape: 0, Original: []int{-1, 1, 2, 3}}}, l.IndexedIndependents())
	assert.Equal(t, []int{0}, d.OrigDependents)
	assert.Equal(t, 1, d.TemporaryCount)

	checkLoopValues(t, f, d, []float64{0.3, -0.7, 1.1, 2.5, 0.9})
}

func TestReferenceIteration(t *testing.T) {
	tests := []struct {
		sigs []string
		want int
	}{
		{[]string{"a", "a", "b"}, 0},
		{[]string{"b", "a", "a", "a"}, 1},
		{[]string{"a", "b"}, 0},
		{[]string{"a", "b", "c", "c", "b", "b"}, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, referenceIteration(tt.sigs), "%v", tt.sigs)
	}
}

func TestDetect_SeparateLoopsByIterationCount(t *testing.T) {
	rec := tape.NewRecorder()
	x := rec.Independent(5)
	var ys []tape.Var
	for i := range 3 {
		ys = append(ys, rec.Exp(x[i]))
	}
	ys = append(ys, rec.Mul(x[3], x[0]), rec.Mul(x[4], x[0]))
	f := rec.Dependent(ys...)

	d, err := Detect(f, [][]int{{2, 0, 1}, {3, 4}}, nil)
	require.NoError(t, err)
	require.Len(t, d.Loops, 2)
	assert.Equal(t, 3, d.Loops[0].IterationCount())
	assert.Equal(t, 2, d.Loops[1].IterationCount())
	assert.Equal(t, []Position{{Tape: 1, Original: 0}}, d.Loops[1].NonIndexedIndependents())
	assert.Equal(t, 0, d.TemporaryCount)

	checkLoopValues(t, f, d, []float64{0.1, 0.2, 0.3, 0.4, 0.5})
}

func TestDetect_IgnoresUnrelated(t *testing.T) {
	f := blockTape(false)

	d, err := Detect(f, [][]int{{0}, {1, 4}}, nil)
	require.NoError(t, err)
	assert.Empty(t, d.Loops)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, d.OrigDependents)
	assert.Equal(t, 6, d.LoopFree.Range())
}

func TestDetect_InvalidCandidates(t *testing.T) {
	f := blockTape(false)

	_, err := Detect(f, [][]int{{0, 9}}, nil)
	assert.ErrorIs(t, err, ErrInvalidCandidates)

	_, err = Detect(f, [][]int{{0, 2}, {2, 4}}, nil)
	assert.ErrorIs(t, err, ErrInvalidCandidates)
}

func TestRanges(t *testing.T) {
	tests := []struct {
		iterations sparsity.Set
		want       []int
	}{
		{sparsity.Set{3}, []int{3, 3}},
		{sparsity.Set{0, 1, 2}, []int{0, 2}},
		{sparsity.Set{0, 2}, []int{0, 0, 2, 2}},
		{sparsity.Set{0, 1, 2, 5, 7, 8}, []int{0, 2, 5, 5, 7, 8}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Ranges(tt.iterations))
	}
}

func TestIndexCondition(t *testing.T) {
	m := graph.NewManager()
	index := m.NewIndex()

	cond := IndexCondition(m, sparsity.Set{0, 2, 3}, 5, index)
	n := m.Node(cond)
	assert.Equal(t, graph.KindIndexCondExpr, n.Kind)
	assert.Equal(t, []int{0, 0, 2, 3}, n.Info)
	assert.Equal(t, cond, IndexCondition(m, sparsity.Set{0, 2, 3}, 5, index))

	ev := graph.NewEvaluator(m)
	var got []float64
	for it := range 5 {
		ev.BindIndex(index, it)
		got = append(got, ev.Eval(graph.Ref(cond)))
	}
	assert.Equal(t, []float64{1, 0, 1, 1, 0}, got)

	assert.Panics(t, func() { IndexCondition(m, sparsity.Set{5}, 5, index) })
	assert.Panics(t, func() { IndexCondition(m, nil, 5, index) })
}

func TestRelatedCandidates(t *testing.T) {
	assert.Equal(t, [][]int{{0, 2, 4}, {1, 3, 5}}, RelatedCandidates(2, 3))
}
