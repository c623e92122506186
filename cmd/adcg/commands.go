package main

import (
	"fmt"

	"github.com/born-ml/adcg/internal/codegen"
	"github.com/born-ml/adcg/internal/config"
	"github.com/born-ml/adcg/internal/ctxlog"
	"github.com/born-ml/adcg/internal/jobtimer"
	"github.com/born-ml/adcg/internal/models"
	"github.com/spf13/cobra"
)

const version = "v0.1.0-dev"

// options holds the flags shared by every command.
type options struct {
	configPath string
	logLevel   string

	// overrides of the model configuration, applied when set
	model   string
	repeat  int
	noLoops bool

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "adcg",
		Short:         "Sparse Jacobian and Hessian generation with loop patterns",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Log.Level = opts.logLevel
			}
			if opts.model != "" {
				cfg.Model.Name = opts.model
			}
			if opts.repeat > 0 {
				cfg.Model.Repeat = opts.repeat
			}
			if opts.noLoops {
				cfg.Model.Loops = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts.cfg = cfg

			logger := ctxlog.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVarP(&opts.model, "model", "m", "", "built-in model name")
	flags.IntVarP(&opts.repeat, "repeat", "r", 0, "repeat count of the model")
	flags.BoolVar(&opts.noLoops, "no-loops", false, "differentiate the whole model without loop detection")

	root.AddCommand(
		newVersionCmd(),
		newModelsCmd(),
		newGenerateCmd(opts),
		newSpeedCmd(opts),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "adcg %s\n", version)
		},
	}
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the built-in models",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range models.Names() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", name, models.Describe(name))
			}
		},
	}
}

// buildModel records the configured model.
func (o *options) buildModel() (*models.Model, error) {
	return models.Build(o.cfg.Model.Name, o.cfg.Model.Repeat)
}

// generator creates a code generator for m from the configuration.
func (o *options) generator(cmd *cobra.Command, m *models.Model, timer *jobtimer.Timer) *codegen.Generator {
	opts := codegen.Options{
		Jacobian: o.cfg.Derivatives.Jacobian,
		Hessian:  o.cfg.Derivatives.Hessian,
		Logger:   ctxlog.FromContext(cmd.Context()),
		Timer:    timer,
	}
	if o.cfg.Model.Loops {
		opts.RelatedDependents = m.Related
	}
	return codegen.New(opts)
}
