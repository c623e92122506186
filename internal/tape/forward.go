package tape

// Forward evaluates the dependents at x.
func (t *Tape) Forward(x []float64) ([]float64, error) {
	if err := checkSize("x", len(x), t.domain); err != nil {
		return nil, err
	}
	values := t.sweep(x)
	y := make([]float64, len(t.dependents))
	for i, v := range t.dependents {
		y[i] = values[v]
	}
	return y, nil
}

// Gradient returns the derivative of sum_i w[i]*y[i] with respect to x,
// walking the tape in reverse.
func (t *Tape) Gradient(x, w []float64) ([]float64, error) {
	if err := checkSize("x", len(x), t.domain); err != nil {
		return nil, err
	}
	if err := checkSize("w", len(w), len(t.dependents)); err != nil {
		return nil, err
	}

	values := t.sweep(x)
	adj := make([]float64, len(t.instrs))
	for i, v := range t.dependents {
		adj[v] += w[i]
	}

	args := make([]float64, 0, 2)
	for v := len(t.instrs) - 1; v >= 0; v-- {
		in := &t.instrs[v]
		if in.kind != instrOperation || adj[v] == 0 {
			continue
		}
		args = args[:0]
		for _, a := range in.args {
			args = append(args, values[a])
		}
		for j, p := range in.op.Partials(args, values[v]) {
			adj[in.args[j]] += adj[v] * p
		}
	}

	grad := make([]float64, t.domain)
	for v := range t.instrs {
		if in := &t.instrs[v]; in.kind == instrIndependent {
			grad[in.index] = adj[v]
		}
	}
	return grad, nil
}

// sweep computes the value of every variable.
func (t *Tape) sweep(x []float64) []float64 {
	values := make([]float64, len(t.instrs))
	args := make([]float64, 0, 2)
	for v := range t.instrs {
		in := &t.instrs[v]
		switch in.kind {
		case instrIndependent:
			values[v] = x[in.index]
		case instrConstant:
			values[v] = in.value
		case instrOperation:
			args = args[:0]
			for _, a := range in.args {
				args = append(args, values[a])
			}
			values[v] = in.op.Forward(args)
		}
	}
	return values
}
