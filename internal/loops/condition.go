package loops

import (
	"fmt"

	"github.com/born-ml/adcg/internal/graph"
	"github.com/born-ml/adcg/internal/sparsity"
)

// IndexCondition creates the condition that is true when the loop index is
// one of iterations. Consecutive iterations are compressed into inclusive
// ranges. Equal conditions on the same index are shared by the session.
func IndexCondition(m *graph.Manager, iterations sparsity.Set, maxIter int, index graph.NodeID) graph.NodeID {
	if len(iterations) == 0 {
		panic("loops: index condition over no iteration")
	}
	if iterations.Min() < 0 || iterations.Max() >= maxIter {
		panic(fmt.Sprintf("loops: iterations %v outside [0, %d)", iterations, maxIter))
	}
	return m.MustCreate(graph.KindIndexCondExpr, []graph.Value{graph.Ref(index)}, Ranges(iterations))
}

// Ranges compresses a set into inclusive [lo, hi] pairs.
func Ranges(iterations sparsity.Set) []int {
	var ranges []int
	for i := 0; i < len(iterations); {
		j := i
		for j+1 < len(iterations) && iterations[j+1] == iterations[j]+1 {
			j++
		}
		ranges = append(ranges, iterations[i], iterations[j])
		i = j + 1
	}
	return ranges
}
