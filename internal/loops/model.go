// Package loops describes equation patterns repeated across iterations and
// detects them on a tape.
//
// A loop model owns a loop tape whose dependents are the loop equations of a
// single iteration. Its independents are positions mapped to the original
// model: indexed positions read a different x element in every iteration,
// non-indexed positions always read the same x element and temporary
// positions read values computed once by the loop-free tape.
package loops

import (
	"fmt"
	"slices"
	"strings"

	"github.com/born-ml/adcg/internal/sparsity"
	"github.com/born-ml/adcg/internal/tape"
)

// IterEquationGroup lists loop equations present in the same iterations.
type IterEquationGroup struct {
	Iterations sparsity.Set // iterations where the equations exist
	TapeI      sparsity.Set // equation indexes on the loop tape
}

// Position maps a loop tape independent to one original index.
type Position struct {
	Tape     int
	Original int
}

// IndexedPosition maps a loop tape independent to one original x element per
// iteration, -1 where the independent is not read.
type IndexedPosition struct {
	Tape     int
	Original []int
}

// Model is one detected loop.
type Model struct {
	ID int

	iterationCount int
	tape           *tape.Tape
	equations      [][]int // [tapeI][iteration] original dependent or -1
	groups         []IterEquationGroup
	indexed        []IndexedPosition
	nonIndexed     []Position
	temporaries    []Position // sorted by temporary index
}

// IterationCount returns the number of iterations.
func (l *Model) IterationCount() int {
	return l.iterationCount
}

// Tape returns the loop tape.
func (l *Model) Tape() *tape.Tape {
	return l.tape
}

// EquationCount returns the number of loop equations.
func (l *Model) EquationCount() int {
	return len(l.equations)
}

// DependentOrigIndexes returns, for loop equation tapeI, the original
// dependent computed in each iteration or -1 where the equation is absent.
func (l *Model) DependentOrigIndexes(tapeI int) []int {
	return l.equations[tapeI]
}

// EquationGroups returns the equation groups, fewer iterations first and
// then by iteration set.
func (l *Model) EquationGroups() []IterEquationGroup {
	return l.groups
}

// IndexedIndependents returns the positions whose x element changes with
// the iteration.
func (l *Model) IndexedIndependents() []IndexedPosition {
	return l.indexed
}

// NonIndexedIndependents returns the positions reading one x element.
func (l *Model) NonIndexedIndependents() []Position {
	return l.nonIndexed
}

// TemporaryIndependents returns the temporary positions sorted by temporary.
func (l *Model) TemporaryIndependents() []Position {
	return l.temporaries
}

// TempIndepIndex returns the position of temporary k, or nil if the loop
// does not use it.
func (l *Model) TempIndepIndex(k int) *Position {
	i, found := slices.BinarySearchFunc(l.temporaries, k, func(p Position, k int) int {
		return p.Original - k
	})
	if !found {
		return nil
	}
	return &l.temporaries[i]
}

// String returns a compact description of the loop.
func (l *Model) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "loop %d: %d iterations, %d equations", l.ID, l.iterationCount, len(l.equations))
	for _, g := range l.groups {
		fmt.Fprintf(&b, "\n  iterations %v: equations %v", g.Iterations, g.TapeI)
	}
	return b.String()
}
