package sparsity

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Print writes a row-by-row listing of p, aligning every column index under
// its own slot.
func Print(w io.Writer, p Pattern, name string) error {
	maxDim := len(p)
	for _, s := range p {
		if len(s) > 0 && s.Max() > maxDim {
			maxDim = s.Max()
		}
	}
	width := len(strconv.Itoa(maxDim))

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s  sparsity:\n", name)
	}
	for i, s := range p {
		fmt.Fprintf(&b, " %*d: ", width, i)
		last := -1
		for _, j := range s {
			if gap := j - last - 1; gap > 0 {
				b.WriteString(strings.Repeat(" ", gap*(width+1)))
			}
			fmt.Fprintf(&b, "%*d ", width, j)
			last = j
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}
