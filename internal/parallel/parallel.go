// Package parallel evaluates independent work items of a compiled model on
// several goroutines.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns defaults based on CPU count. Model evaluations are
// much heavier than element-wise work, so chunks are small.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4,
	}
}

// sequential reports whether n items are better processed on the caller's goroutine.
func (c Config) sequential(n int) bool {
	return !c.Enabled || c.NumWorkers < 2 || n < 2*c.MinChunkSize
}

// For executes f(i) for i in [0, n) with optional parallelism.
func For(n int, f func(i int), cfg Config) {
	_ = ForErr(context.Background(), n, func(_ context.Context, i int) error {
		f(i)
		return nil
	}, cfg)
}

// ForErr executes f(i) for i in [0, n), split into chunks processed by at
// most cfg.NumWorkers goroutines. It returns the first error; remaining
// chunks observe the cancellation of their context.
func ForErr(ctx context.Context, n int, f func(ctx context.Context, i int) error, cfg Config) error {
	if cfg.sequential(n) {
		for i := 0; i < n; i++ {
			if err := f(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.NumWorkers)
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gCtx.Err(); err != nil {
					return err
				}
				if err := f(gCtx, i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
