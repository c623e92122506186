package codegen

import (
	"fmt"
	"io"

	"github.com/born-ml/adcg/internal/graph"
	"github.com/born-ml/adcg/internal/loops"
	"github.com/born-ml/adcg/internal/sparsity"
)

// Entry adds Value to element Loc of an output.
type Entry struct {
	Loc   int
	Value graph.Value
}

// LoopedEntry adds Value, evaluated at every iteration of a loop, to element
// Locations[it] of an output. Iterations with a negative location are skipped.
type LoopedEntry struct {
	Loop      int
	Index     graph.NodeID
	Value     graph.Value
	Locations []int
}

// Output is one generated function: zero order values, Jacobian or Hessian.
// Every element starts at zero and accumulates its entries.
type Output struct {
	Size int

	// Rows and Cols give the sparsity coordinates of each element of a
	// derivative output. Nil for zero order values.
	Rows, Cols []int

	Direct []Entry
	Looped []LoopedEntry
}

// Pattern returns the sparsity of a derivative output with the given rows.
func (o *Output) Pattern(rows int) sparsity.Pattern {
	return sparsity.FromIndexes(o.Rows, o.Cols, rows)
}

// Values lists every entry value of the output.
func (o *Output) Values() []graph.Value {
	values := make([]graph.Value, 0, len(o.Direct)+len(o.Looped))
	for _, e := range o.Direct {
		values = append(values, e.Value)
	}
	for _, e := range o.Looped {
		values = append(values, e.Value)
	}
	return values
}

func (o *Output) add(loc int, v graph.Value) {
	if loc < 0 || v.IsZero() {
		return
	}
	o.Direct = append(o.Direct, Entry{Loc: loc, Value: v})
}

func (o *Output) addLooped(loop int, index graph.NodeID, v graph.Value, locations []int) {
	if v.IsZero() {
		return
	}
	for _, loc := range locations {
		if loc >= 0 {
			o.Looped = append(o.Looped, LoopedEntry{Loop: loop, Index: index, Value: v, Locations: locations})
			return
		}
	}
}

// Result is the outcome of one code generation session.
type Result struct {
	// Graph owns every value referenced by the result.
	Graph *graph.Manager

	Domain int
	Range  int

	// Temporaries are computed first from x and read through the z array.
	Temporaries []graph.Value

	// Loops holds the detected loops, empty if the model was not reduced.
	Loops []*loops.Model

	Zero     Output
	Jacobian *Output
	Hessian  *Output
}

// Dump writes the graph of every output of r.
func (r *Result) Dump(w io.Writer) error {
	outputs := append([]graph.Value(nil), r.Temporaries...)
	outputs = append(outputs, r.Zero.Values()...)
	if r.Jacobian != nil {
		outputs = append(outputs, r.Jacobian.Values()...)
	}
	if r.Hessian != nil {
		outputs = append(outputs, r.Hessian.Values()...)
	}
	for _, l := range r.Loops {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return r.Graph.Dump(w, outputs)
}

// locator maps sparsity coordinates to output elements.
type locator []map[int]int

func newLocator(rows, cols []int, nRows int) locator {
	l := make(locator, nRows)
	for i := range l {
		l[i] = make(map[int]int)
	}
	for e := range rows {
		l[rows[e]][cols[e]] = e
	}
	return l
}

// at returns the element of (i, j), or -1 if it is not part of the output.
func (l locator) at(i, j int) int {
	if i < 0 || j < 0 || i >= len(l) {
		return -1
	}
	if e, ok := l[i][j]; ok {
		return e
	}
	return -1
}
