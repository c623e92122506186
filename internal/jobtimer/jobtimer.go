// Package jobtimer measures the phases of code generation runs and
// summarizes them over repeated executions.
//
// Durations are exported as a prometheus histogram per phase and kept in
// memory for the statistics printed by speed runs.
package jobtimer

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Code generation phases.
const (
	PhaseDetection  = "pattern_detection"
	PhaseZeroOrder  = "zero_order"
	PhaseJacobian   = "jacobian"
	PhaseHessian    = "hessian"
	PhaseCompile    = "compile"
	PhaseEvaluation = "evaluation"
)

// Timer records phase durations. A nil *Timer records nothing.
type Timer struct {
	mu        sync.Mutex
	order     []string
	durations map[string][]float64 // seconds

	registry *prometheus.Registry
	duration *prometheus.HistogramVec
}

// New creates a timer with its own metrics registry.
func New() *Timer {
	reg := prometheus.NewRegistry()
	return &Timer{
		durations: make(map[string][]float64),
		registry:  reg,
		duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "adcg_phase_duration_seconds",
			Help:    "Duration of code generation phases",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 12),
		}, []string{"phase"}),
	}
}

// Registry returns the registry holding the phase histograms, an empty one
// for a nil Timer.
func (t *Timer) Registry() *prometheus.Registry {
	if t == nil {
		return prometheus.NewRegistry()
	}
	return t.registry
}

// Start begins timing phase and returns the function ending it.
//
//	defer timer.Start(jobtimer.PhaseJacobian)()
func (t *Timer) Start(phase string) func() {
	if t == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		t.Observe(phase, time.Since(start))
	}
}

// Observe records one duration of phase.
func (t *Timer) Observe(phase string, d time.Duration) {
	if t == nil {
		return
	}
	s := d.Seconds()
	t.duration.WithLabelValues(phase).Observe(s)

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.durations[phase]; !ok {
		t.order = append(t.order, phase)
	}
	t.durations[phase] = append(t.durations[phase], s)
}

// Phases returns the observed phases in order of first observation.
func (t *Timer) Phases() []string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.order)
}

// Stats summarizes the durations of one phase, in seconds.
type Stats struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Stats returns the summary of phase. The zero Stats is returned for a
// phase never observed.
func (t *Timer) Stats(phase string) Stats {
	if t == nil {
		return Stats{}
	}
	t.mu.Lock()
	values := slices.Clone(t.durations[phase])
	t.mu.Unlock()
	return Summarize(values)
}

// Summarize computes the statistics of values.
func Summarize(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	s := Stats{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s
}

// Print writes the statistics of every phase in milliseconds.
func (t *Timer) Print(w io.Writer) error {
	for _, phase := range t.Phases() {
		s := t.Stats(phase)
		_, err := fmt.Fprintf(w, "%-18s n=%-4d mean=%.3fms std=%.3fms min=%.3fms q1=%.3fms median=%.3fms q3=%.3fms max=%.3fms\n",
			phase, s.Count, ms(s.Mean), ms(s.StdDev), ms(s.Min), ms(s.Q1), ms(s.Median), ms(s.Q3), ms(s.Max))
		if err != nil {
			return err
		}
	}
	return nil
}

func ms(seconds float64) float64 {
	return seconds * 1e3
}
