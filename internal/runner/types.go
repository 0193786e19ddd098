package runner

import (
	"fmt"
	"time"

	"abchart/internal/report"
	"abchart/internal/session"
)

// Config holds everything a sweep needs to build sessions.
type Config struct {
	Tool     string
	Host     string
	Port     int
	Requests int

	// Concurrency sweep
	Levels []int

	// Size sweep
	Sizes           []int
	SizeConcurrency int
	SizePath        string // template, {{.Size}} is the requested byte count
}

// Axis is the parameter a sweep varies.
type Axis string

const (
	AxisConcurrency Axis = "threads"
	AxisSize        Axis = "bytes"
)

// RunResult is one row of a sweep before it is flattened into a table.
type RunResult struct {
	Axis    Axis
	Value   int
	Path    string
	Fields  report.Fields
	Elapsed time.Duration
}

// Progress is reported before each run.
type Progress struct {
	Axis  Axis
	Index int
	Total int
	Value int
	Path  string
}

// Validate checks the whole sweep plan before anything is started. Zero
// is rejected like any other non-positive value; defaults are applied by
// the caller, never here.
func (c Config) Validate() error {
	if err := checkRequests(c.Requests); err != nil {
		return err
	}
	if err := checkLevels(c.Levels); err != nil {
		return err
	}
	return checkSizes(c.Sizes, c.SizeConcurrency)
}

func checkRequests(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: requests must be positive, got %d", session.ErrInvalidConfiguration, n)
	}
	return nil
}

func checkLevels(levels []int) error {
	if len(levels) == 0 {
		return fmt.Errorf("%w: no concurrency levels", session.ErrInvalidConfiguration)
	}
	for _, l := range levels {
		if l <= 0 {
			return fmt.Errorf("%w: concurrency level must be positive, got %d", session.ErrInvalidConfiguration, l)
		}
	}
	return nil
}

func checkSizes(sizes []int, concurrency int) error {
	if concurrency <= 0 {
		return fmt.Errorf("%w: size concurrency must be positive, got %d", session.ErrInvalidConfiguration, concurrency)
	}
	if len(sizes) == 0 {
		return fmt.Errorf("%w: no response sizes", session.ErrInvalidConfiguration)
	}
	for _, s := range sizes {
		if s < 0 {
			return fmt.Errorf("%w: response size must not be negative, got %d", session.ErrInvalidConfiguration, s)
		}
	}
	return nil
}
