// Package loopfree wraps the tape computing everything outside loops: the
// original dependents evaluated directly and the temporaries read by loop
// equations.
package loopfree

import (
	"fmt"

	"github.com/born-ml/adcg/internal/sparsity"
	"github.com/born-ml/adcg/internal/tape"
)

type sparsityState uint8

const (
	uninitialized sparsityState = iota
	ready
)

// Model is a loop-free tape whose first dependents are original dependents
// and whose remaining dependents are temporaries.
//
// Sparsity patterns are computed once on request. A Model belongs to one
// code generation session and is not safe for concurrent use.
type Model struct {
	tape             *tape.Tape
	dependentIndexes []int
	depOrig2Local    map[int]int

	jacState    sparsityState
	jacSparsity sparsity.Pattern

	hessState        sparsityState
	hessTempSparsity sparsity.Pattern
	hessOrigSparsity sparsity.Pattern
}

// New creates a loop-free model computing the original dependents
// dependentOrigIndexes as its first dependents.
func New(t *tape.Tape, dependentOrigIndexes []int) *Model {
	if t == nil {
		panic("loopfree: nil tape")
	}
	if len(dependentOrigIndexes) > t.Range() {
		panic(fmt.Sprintf("loopfree: %d original dependents for a tape with range %d", len(dependentOrigIndexes), t.Range()))
	}
	m := &Model{
		tape:             t,
		dependentIndexes: append([]int(nil), dependentOrigIndexes...),
		depOrig2Local:    make(map[int]int, len(dependentOrigIndexes)),
	}
	for local, orig := range dependentOrigIndexes {
		m.depOrig2Local[orig] = local
	}
	return m
}

// Tape returns the loop-free tape.
func (m *Model) Tape() *tape.Tape {
	return m.tape
}

// TapeDependentCount returns the number of tape dependents.
func (m *Model) TapeDependentCount() int {
	return m.tape.Range()
}

// TemporaryDependentCount returns the number of dependents that are temporaries.
func (m *Model) TemporaryDependentCount() int {
	return m.tape.Range() - len(m.dependentIndexes)
}

// TapeIndependentCount returns the number of independents.
func (m *Model) TapeIndependentCount() int {
	return m.tape.Domain()
}

// OrigDependentIndexes returns the original dependents in tape order.
func (m *Model) OrigDependentIndexes() []int {
	return m.dependentIndexes
}

// LocalDependentIndex returns the tape dependent computing original dependent orig.
func (m *Model) LocalDependentIndex(orig int) (int, bool) {
	local, ok := m.depOrig2Local[orig]
	return local, ok
}

// EvalJacobianSparsity computes the Jacobian sparsity if it is not known yet.
func (m *Model) EvalJacobianSparsity() {
	if m.jacState == ready {
		return
	}
	m.jacSparsity = m.tape.JacobianSparsity()
	m.jacState = ready
}

// JacobianSparsity returns the sparsity computed by EvalJacobianSparsity.
func (m *Model) JacobianSparsity() sparsity.Pattern {
	if m.jacState != ready {
		panic("loopfree: Jacobian sparsity requested before EvalJacobianSparsity")
	}
	return m.jacSparsity
}

// EvalHessianSparsity computes the Hessian sparsity of the original and of
// the temporary equations if they are not known yet.
func (m *Model) EvalHessianSparsity() {
	if m.hessState == ready {
		return
	}
	mo := len(m.dependentIndexes)
	total := m.tape.Range()

	m.hessOrigSparsity = m.tape.HessianSparsity(sparsity.Range(0, mo))
	if total > mo {
		m.hessTempSparsity = m.tape.HessianSparsity(sparsity.Range(mo, total))
	} else {
		m.hessTempSparsity = sparsity.New(m.tape.Domain())
	}
	m.hessState = ready
}

// HessianTempEqsSparsity returns the Hessian sparsity of the temporaries.
func (m *Model) HessianTempEqsSparsity() sparsity.Pattern {
	m.mustHaveHessianSparsity()
	return m.hessTempSparsity
}

// HessianOrigEqsSparsity returns the Hessian sparsity of the original dependents.
func (m *Model) HessianOrigEqsSparsity() sparsity.Pattern {
	m.mustHaveHessianSparsity()
	return m.hessOrigSparsity
}

func (m *Model) mustHaveHessianSparsity() {
	if m.hessState != ready {
		panic("loopfree: Hessian sparsity requested before EvalHessianSparsity")
	}
}
