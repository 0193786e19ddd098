package runner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"abchart/internal/report"
	"abchart/internal/session"
	"abchart/internal/stats"
	"abchart/internal/table"
)

// Runner drives sweeps one session at a time. It is not safe for
// concurrent use.
type Runner struct {
	Cfg     Config
	Exec    session.Executor
	Stats   *stats.Stats
	Results []RunResult
	Log     *zap.Logger

	// OnRun is called before each tool invocation
	OnRun func(Progress)

	sizePath *PathTemplate
}

// NewRunner validates cfg and returns a runner with empty results. Every
// count and list in cfg must be set; start from DefaultConfig for the
// standard plan.
func NewRunner(cfg Config, ex session.Executor, log *zap.Logger) (*Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tmpl, err := ParsePathTemplate(cfg.SizePath)
	if err != nil {
		return nil, err
	}

	return &Runner{
		Cfg:      cfg,
		Exec:     ex,
		Stats:    stats.NewStats(),
		Log:      log,
		sizePath: tmpl,
	}, nil
}

// Concurrency runs one session per level against path with a fixed
// request count. Rows follow the order of levels. Every level is checked
// before the first run.
func (r *Runner) Concurrency(ctx context.Context, path string, levels []int) (table.Table, error) {
	if err := checkRequests(r.Cfg.Requests); err != nil {
		return nil, err
	}
	if err := checkLevels(levels); err != nil {
		return nil, err
	}

	t := newTable(AxisConcurrency)
	for i, c := range levels {
		s := r.session(path, c)
		res, err := r.run(ctx, s, AxisConcurrency, i, len(levels), c)
		if err != nil {
			return t, err
		}
		t = append(t, append([]any{c}, res.Fields.Values()...))
	}
	return t, nil
}

// Sizes runs one session per response size with a fixed concurrency.
func (r *Runner) Sizes(ctx context.Context, sizes []int, concurrency int) (table.Table, error) {
	if err := checkRequests(r.Cfg.Requests); err != nil {
		return nil, err
	}
	if err := checkSizes(sizes, concurrency); err != nil {
		return nil, err
	}
	paths := make([]string, len(sizes))
	for i, sz := range sizes {
		path, err := r.sizePath.Path(sz)
		if err != nil {
			return nil, fmt.Errorf("%w: size path: %w", session.ErrInvalidConfiguration, err)
		}
		paths[i] = path
	}

	t := newTable(AxisSize)
	for i, sz := range sizes {
		s := r.session(paths[i], concurrency)
		res, err := r.run(ctx, s, AxisSize, i, len(sizes), sz)
		if err != nil {
			return t, err
		}
		t = append(t, append([]any{sz}, res.Fields.Values()...))
	}
	return t, nil
}

// SizePath returns the request path used for size.
func (r *Runner) SizePath(size int) (string, error) {
	return r.sizePath.Path(size)
}

func (r *Runner) session(path string, concurrency int) session.Session {
	return session.Session{
		Tool:        r.Cfg.Tool,
		Host:        r.Cfg.Host,
		Port:        r.Cfg.Port,
		Path:        path,
		Requests:    r.Cfg.Requests,
		Concurrency: concurrency,
	}
}

func (r *Runner) run(ctx context.Context, s session.Session, axis Axis, index, total, value int) (*session.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.OnRun != nil {
		r.OnRun(Progress{Axis: axis, Index: index, Total: total, Value: value, Path: s.Path})
	}

	res, err := s.Run(ctx, r.Exec)
	if err != nil {
		r.Log.Error("benchmark run failed",
			zap.String("axis", string(axis)), zap.Int("value", value), zap.Error(err))
		return nil, err
	}

	complete := len(res.Fields) == len(report.Rules)
	r.Stats.AddRun(res.Elapsed, complete)
	if !complete {
		r.Log.Warn("incomplete report",
			zap.String("axis", string(axis)), zap.Int("value", value),
			zap.Strings("command", res.Command), zap.Int("fields", len(res.Fields)))
	}
	r.Log.Debug("benchmark run finished",
		zap.String("axis", string(axis)), zap.Int("value", value), zap.Duration("elapsed", res.Elapsed))

	r.Results = append(r.Results, RunResult{
		Axis:    axis,
		Value:   value,
		Path:    s.Path,
		Fields:  res.Fields,
		Elapsed: res.Elapsed,
	})
	return res, nil
}

func newTable(axis Axis) table.Table {
	header := []any{string(axis)}
	for _, l := range report.Labels() {
		header = append(header, l)
	}
	return table.Table{header}
}
