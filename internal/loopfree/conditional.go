package loopfree

import (
	"fmt"

	"github.com/born-ml/adcg/internal/graph"
	"github.com/born-ml/adcg/internal/loops"
	"github.com/born-ml/adcg/internal/sparsity"
)

// CreateConditionalOperation returns value in the given iterations of the
// loop with index and zero in every other iteration.
//
// No node is created when iterations covers every one of the iterCount
// iterations or when value is the constant zero. Otherwise value is wrapped
// in a temporary assigned inside an if/else on the iteration index:
//
//	tmp_dcl
//	start_if(index in iterations)
//	cond_assign(tmp, value)
//	else, assigning 0
//	end_if, the merged temporary
func CreateConditionalOperation(m *graph.Manager, iterations sparsity.Set, iterCount int, value graph.Value, index graph.NodeID) graph.Value {
	if len(iterations) == iterCount || value.IsZero() {
		return value
	}

	cond := loops.IndexCondition(m, iterations, iterCount, index)

	tmp := manage(m, graph.KindTmpDcl)
	start := manage(m, graph.KindStartIf, graph.Ref(cond))
	assign := manage(m, graph.KindCondAssign, start, tmp, value)
	els := manage(m, graph.KindElse, start, assign, tmp, graph.Const(0))
	return manage(m, graph.KindEndIf, tmp, els)
}

func manage(m *graph.Manager, kind graph.Kind, args ...graph.Value) graph.Value {
	id, err := m.ManageNode(graph.NewNode(kind, args, nil))
	if err != nil {
		panic(fmt.Sprintf("loopfree: %v", err))
	}
	return graph.Ref(id)
}
