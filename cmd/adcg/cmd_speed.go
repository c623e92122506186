package main

import (
	"fmt"

	"github.com/born-ml/adcg/internal/ctxlog"
	"github.com/born-ml/adcg/internal/jobtimer"
	"github.com/born-ml/adcg/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newSpeedCmd(opts *options) *cobra.Command {
	var metricsFile string
	cmd := &cobra.Command{
		Use:   "speed",
		Short: "Time repeated code generation and evaluation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := ctxlog.FromContext(ctx)
			m, err := opts.buildModel()
			if err != nil {
				return err
			}

			points := make([][]float64, opts.cfg.Speed.Evaluations)
			for i := range points {
				points[i] = append([]float64(nil), m.Point...)
				points[i][i%len(m.Point)] *= 1 + 1e-3*float64(i)
			}

			timer := jobtimer.New()
			for run := range opts.cfg.Speed.Executions {
				if err := ctx.Err(); err != nil {
					return err
				}
				res, err := opts.generator(cmd, m, timer).Generate(m.Tape)
				if err != nil {
					return fmt.Errorf("run %d: %w", run, err)
				}

				stop := timer.Start(jobtimer.PhaseCompile)
				compiled, err := model.Compile(res, model.WithParallel(opts.cfg.Parallel.ToParallel()))
				stop()
				if err != nil {
					return err
				}

				stop = timer.Start(jobtimer.PhaseEvaluation)
				_, err = compiled.ForwardZeroBatch(ctx, points)
				stop()
				if err != nil {
					return fmt.Errorf("run %d: %w", run, err)
				}
				logger.Debug("run finished", "run", run, "nodes", res.Graph.Len(), "loops", len(res.Loops))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "model %s, repeat %d, %d runs\n",
				m.Name, opts.cfg.Model.Repeat, opts.cfg.Speed.Executions)
			if err := timer.Print(cmd.OutOrStdout()); err != nil {
				return err
			}
			if metricsFile != "" {
				return prometheus.WriteToTextfile(metricsFile, timer.Registry())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write the phase histograms in the prometheus text format")
	return cmd
}
