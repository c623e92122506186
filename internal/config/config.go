// Package config loads the settings of the adcg command line tool.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/born-ml/adcg/internal/parallel"
	"gopkg.in/yaml.v3"
)

// ErrInvalid reports a configuration that failed validation.
var ErrInvalid = errors.New("config: invalid")

// Config is the top-level configuration.
type Config struct {
	// Model selects the built-in model to generate.
	Model ModelConfig `yaml:"model"`

	// Derivatives selects the generated functions.
	Derivatives DerivativesConfig `yaml:"derivatives"`

	// Speed controls timing runs.
	Speed SpeedConfig `yaml:"speed"`

	// Log controls the logger.
	Log LogConfig `yaml:"log"`

	// Parallel controls batch evaluations.
	Parallel ParallelConfig `yaml:"parallel"`
}

// ModelConfig selects a model.
type ModelConfig struct {
	Name   string `yaml:"name"`
	Repeat int    `yaml:"repeat"`
	// Loops enables loop detection over the model related dependents.
	Loops bool `yaml:"loops"`
}

// DerivativesConfig selects the derivative functions.
type DerivativesConfig struct {
	Jacobian bool `yaml:"jacobian"`
	Hessian  bool `yaml:"hessian"`
}

// SpeedConfig controls timing runs.
type SpeedConfig struct {
	// Executions is the number of code generation runs.
	Executions int `yaml:"executions"`
	// Evaluations is the number of points evaluated per run.
	Evaluations int `yaml:"evaluations"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ParallelConfig controls batch evaluations.
type ParallelConfig struct {
	Enabled      bool `yaml:"enabled"`
	Workers      int  `yaml:"workers"`
	MinChunkSize int  `yaml:"min_chunk_size"`
}

// Default returns the default configuration.
func Default() Config {
	p := parallel.DefaultConfig()
	return Config{
		Model: ModelConfig{
			Name:   "distillation",
			Repeat: 8,
			Loops:  true,
		},
		Derivatives: DerivativesConfig{
			Jacobian: true,
			Hessian:  true,
		},
		Speed: SpeedConfig{
			Executions:  10,
			Evaluations: 100,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Parallel: ParallelConfig{
			Enabled:      p.Enabled,
			Workers:      p.NumWorkers,
			MinChunkSize: p.MinChunkSize,
		},
	}
}

// Load reads the configuration at path over the defaults, applies the
// environment overrides and validates the result. An empty path only
// applies the defaults and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	fromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func fromEnv(cfg *Config) {
	if v := os.Getenv("ADCG_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ADCG_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ADCG_WORKERS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Parallel.Workers = i
		}
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Model.Name == "" {
		return fmt.Errorf("%w: model.name is empty", ErrInvalid)
	}
	if c.Model.Repeat < 1 {
		return fmt.Errorf("%w: model.repeat must be >= 1", ErrInvalid)
	}
	if c.Speed.Executions < 1 {
		return fmt.Errorf("%w: speed.executions must be >= 1", ErrInvalid)
	}
	if c.Speed.Evaluations < 0 {
		return fmt.Errorf("%w: speed.evaluations must be >= 0", ErrInvalid)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log.level %q", ErrInvalid, c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log.format %q", ErrInvalid, c.Log.Format)
	}
	if c.Parallel.Enabled && c.Parallel.Workers < 1 {
		return fmt.Errorf("%w: parallel.workers must be >= 1", ErrInvalid)
	}
	return nil
}

// ToParallel converts the parallel settings.
func (c ParallelConfig) ToParallel() parallel.Config {
	return parallel.Config{
		Enabled:      c.Enabled,
		NumWorkers:   c.Workers,
		MinChunkSize: max(c.MinChunkSize, 1),
	}
}
