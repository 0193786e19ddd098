package stats

import (
	"sync/atomic"
	"time"
)

// Stats counts benchmark tool invocations across all sweeps.
type Stats struct {
	Runs uint64
	// Runs whose report was missing at least one field
	Partial uint64

	// Wall-clock time of each tool invocation
	RunTime *SafeHistogram
}

func NewStats() *Stats {
	return &Stats{
		RunTime: NewSafeHistogram(),
	}
}

func (s *Stats) AddRun(elapsed time.Duration, complete bool) {
	atomic.AddUint64(&s.Runs, 1)
	if !complete {
		atomic.AddUint64(&s.Partial, 1)
	}
	s.RunTime.Record(elapsed)
}

// PartialRate is the percentage of runs with an incomplete report.
func (s *Stats) PartialRate() float64 {
	runs := atomic.LoadUint64(&s.Runs)
	if runs == 0 {
		return 0
	}
	partial := atomic.LoadUint64(&s.Partial)
	return (float64(partial) / float64(runs)) * 100
}

func (s *Stats) P50() time.Duration {
	return s.RunTime.Quantile(50)
}

func (s *Stats) P99() time.Duration {
	return s.RunTime.Quantile(99)
}
