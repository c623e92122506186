package main

import (
	"fmt"
	"io"

	"github.com/born-ml/adcg/internal/codegen"
	"github.com/born-ml/adcg/internal/model"
	"github.com/born-ml/adcg/internal/models"
	"github.com/born-ml/adcg/internal/sparsity"
	"github.com/spf13/cobra"
)

func newGenerateCmd(opts *options) *cobra.Command {
	var (
		dump     bool
		patterns bool
		eval     bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the functions of a model and summarize them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := opts.buildModel()
			if err != nil {
				return err
			}
			res, err := opts.generator(cmd, m, nil).Generate(m.Tape)
			if err != nil {
				return fmt.Errorf("generate %s: %w", m.Name, err)
			}

			w := cmd.OutOrStdout()
			if err := summarize(w, m, res); err != nil {
				return err
			}
			if patterns {
				if err := printPatterns(w, res); err != nil {
					return err
				}
			}
			if eval {
				if err := evaluate(w, m, res); err != nil {
					return err
				}
			}
			if dump {
				return res.Dump(w)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print the generated graph")
	cmd.Flags().BoolVar(&patterns, "sparsity", false, "print the Jacobian and Hessian sparsity")
	cmd.Flags().BoolVar(&eval, "eval", false, "evaluate the functions at the model point")
	return cmd
}

func summarize(w io.Writer, m *models.Model, res *codegen.Result) error {
	fmt.Fprintf(w, "model %s: %d independents, %d dependents\n", m.Name, res.Domain, res.Range)
	fmt.Fprintf(w, "nodes: %d\n", res.Graph.Len())
	for _, l := range res.Loops {
		fmt.Fprintln(w, l)
	}
	fmt.Fprintf(w, "temporaries: %d\n", len(res.Temporaries))
	outputs := []struct {
		name string
		out  *codegen.Output
	}{
		{"zero order", &res.Zero},
		{"jacobian", res.Jacobian},
		{"hessian", res.Hessian},
	}
	for _, o := range outputs {
		if o.out == nil {
			continue
		}
		_, err := fmt.Fprintf(w, "%s: %d elements, %d direct entries, %d looped entries\n",
			o.name, o.out.Size, len(o.out.Direct), len(o.out.Looped))
		if err != nil {
			return err
		}
	}
	return nil
}

func printPatterns(w io.Writer, res *codegen.Result) error {
	if res.Jacobian != nil {
		if err := sparsity.Print(w, res.Jacobian.Pattern(res.Range), "jac"); err != nil {
			return err
		}
	}
	if res.Hessian != nil {
		if err := sparsity.Print(w, res.Hessian.Pattern(res.Domain), "hess"); err != nil {
			return err
		}
	}
	return nil
}

func evaluate(w io.Writer, m *models.Model, res *codegen.Result) error {
	compiled, err := model.Compile(res)
	if err != nil {
		return err
	}
	y, err := compiled.ForwardZero(m.Point)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "y = %v\n", y)

	if res.Jacobian != nil {
		values, rows, cols, err := compiled.SparseJacobian(m.Point)
		if err != nil {
			return err
		}
		for e, v := range values {
			fmt.Fprintf(w, "jac[%d, %s] = %g\n", rows[e], m.Labels[cols[e]], v)
		}
	}
	if res.Hessian != nil {
		weights := make([]float64, res.Range)
		for i := range weights {
			weights[i] = 1
		}
		values, rows, cols, err := compiled.SparseHessian(m.Point, weights)
		if err != nil {
			return err
		}
		for e, v := range values {
			fmt.Fprintf(w, "hess[%s, %s] = %g\n", m.Labels[rows[e]], m.Labels[cols[e]], v)
		}
	}
	return nil
}
