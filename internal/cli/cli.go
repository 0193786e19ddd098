package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"abchart/internal/runner"
	"abchart/internal/session"
	"abchart/internal/stats"
	"abchart/internal/storage"
	"abchart/internal/table"
	"abchart/internal/target"
	"abchart/internal/tui/components"
	"abchart/internal/tui/styles"
)

// Config is the resolved configuration of one harness invocation.
type Config struct {
	Runner runner.Config
	Target target.ServerConfig

	Shell      bool
	RunTimeout time.Duration
}

// Harness starts the target service and runs the standard charts against it.
type Harness struct {
	Cfg  Config
	Exec session.Executor
	Log  *zap.Logger

	// Tables and the summary
	Out io.Writer
	// Progress bar; nil disables it
	Progress io.Writer
	// Optional sweep history
	Store *storage.Store
}

func New(cfg Config, log *zap.Logger) *Harness {
	if log == nil {
		log = zap.NewNop()
	}
	return &Harness{
		Cfg:      cfg,
		Exec:     session.WithTimeout(session.NewExecutor(cfg.Shell), cfg.RunTimeout),
		Log:      log,
		Out:      os.Stdout,
		Progress: os.Stderr,
	}
}

type chart struct {
	title string
	path  string
	run   func(ctx context.Context, r *runner.Runner) (table.Table, error)
}

func (h *Harness) charts() []chart {
	cfg := h.Cfg.Runner
	return []chart{
		{
			title: fmt.Sprintf("Thread Chart (%d requests, %d byte response body):", cfg.Requests, len(target.HelloBody)),
			path:  "/",
			run: func(ctx context.Context, r *runner.Runner) (table.Table, error) {
				return r.Concurrency(ctx, "/", cfg.Levels)
			},
		},
		{
			title: fmt.Sprintf("Thread Chart (%d requests, %d bytes via static file handler):", cfg.Requests, len(target.HelloBody)),
			path:  "/static/index.html",
			run: func(ctx context.Context, r *runner.Runner) (table.Table, error) {
				return r.Concurrency(ctx, "/static/index.html", cfg.Levels)
			},
		},
		{
			title: fmt.Sprintf("Size Chart (%d requests, %d threads):", cfg.Requests, cfg.SizeConcurrency),
			path:  "/sizer",
			run: func(ctx context.Context, r *runner.Runner) (table.Table, error) {
				return r.Sizes(ctx, cfg.Sizes, cfg.SizeConcurrency)
			},
		},
	}
}

// Run starts the target, prints every chart and stops the target before
// returning, whether or not a sweep failed.
func (h *Harness) Run(ctx context.Context) error {
	start := time.Now()

	srv, err := target.NewServer(h.Cfg.Target, h.Log)
	if err != nil {
		return err
	}

	rcfg := h.Cfg.Runner
	rcfg.Host = srv.Host()
	rcfg.Port = srv.Port()
	r, err := runner.NewRunner(rcfg, h.Exec, h.Log)
	if err != nil {
		return err
	}
	h.Cfg.Runner = r.Cfg
	r.OnRun = h.showProgress

	h.printHeader(srv)
	fmt.Fprintln(h.Out, "Starting target HTTP server...")

	return srv.StartWithCallback(ctx, func(ctx context.Context) error {
		fmt.Fprintf(h.Out, "Started in %s\n", time.Since(start).Round(time.Millisecond))

		for _, c := range h.charts() {
			first := len(r.Results)
			sweepStart := time.Now()

			tbl, err := c.run(ctx, r)
			h.clearProgress()
			if err != nil {
				return fmt.Errorf("%s %w", c.title, err)
			}

			results := r.Results[first:]
			h.printChart(c.title, tbl, results)
			h.save(c, srv, tbl, results, time.Since(sweepStart))
		}

		h.printSummary(r.Stats, time.Since(start))
		return nil
	})
}

func (h *Harness) printHeader(srv *target.Server) {
	cfg := h.Cfg.Runner
	tool := cfg.Tool
	if tool == "" {
		tool = session.DefaultTool
	}

	fmt.Fprintf(h.Out, "\n%s\n", styles.Title.Render("ABCHART BENCHMARK RUN"))
	fmt.Fprintf(h.Out, "======================================================================\n")
	fmt.Fprintf(h.Out, "Tool        : %s\n", tool)
	fmt.Fprintf(h.Out, "Target      : http://%s\n", srv.Addr())
	fmt.Fprintf(h.Out, "Requests    : %d per run\n", cfg.Requests)
	fmt.Fprintf(h.Out, "Concurrency : %s\n", joinInts(cfg.Levels))
	fmt.Fprintf(h.Out, "Sizes       : %s bytes at %d threads\n", joinInts(cfg.Sizes), cfg.SizeConcurrency)
	if h.Cfg.RunTimeout > 0 {
		fmt.Fprintf(h.Out, "Run timeout : %s\n", h.Cfg.RunTimeout)
	}
	fmt.Fprintf(h.Out, "======================================================================\n\n")
}

func (h *Harness) printChart(title string, tbl table.Table, results []runner.RunResult) {
	fmt.Fprintln(h.Out)
	fmt.Fprintln(h.Out, styles.Title.Render(title))
	table.Fprint(h.Out, tbl)

	spark := rpsSparkline(results)
	if line := spark.View(); line != "" {
		fmt.Fprintln(h.Out, line)
	}
}

func (h *Harness) printSummary(s *stats.Stats, total time.Duration) {
	fmt.Fprintf(h.Out, "\n======================================================================\n")
	fmt.Fprintf(h.Out, "Total Duration : %s\n", total.Round(time.Second))
	fmt.Fprintf(h.Out, "Tool Runs      : %d\n", s.Runs)
	if s.Partial > 0 {
		fmt.Fprintln(h.Out, styles.Warn.Render(fmt.Sprintf("Partial Reports: %d (%.0f%%)", s.Partial, s.PartialRate())))
	}
	fmt.Fprintf(h.Out, "Run Time       : p50 %s | p99 %s | max %s\n",
		s.P50(), s.P99(), s.RunTime.Max())
	fmt.Fprintf(h.Out, "======================================================================\n")
}

func (h *Harness) showProgress(p runner.Progress) {
	if h.Progress == nil {
		return
	}
	pct := float64(p.Index) / float64(p.Total)
	fmt.Fprintf(h.Progress, "\r%s %d/%d | %s=%d | %s",
		progressBar(pct, 20), p.Index+1, p.Total, p.Axis, p.Value, truncate(p.Path, 30))
}

func (h *Harness) clearProgress() {
	if h.Progress == nil {
		return
	}
	fmt.Fprintf(h.Progress, "\r%s\r", strings.Repeat(" ", 80))
}

func (h *Harness) save(c chart, srv *target.Server, tbl table.Table, results []runner.RunResult, elapsed time.Duration) {
	if h.Store == nil {
		return
	}

	tool := h.Cfg.Runner.Tool
	if tool == "" {
		tool = session.DefaultTool
	}
	summary := storage.SweepSummary{
		Runs:       len(results),
		PeakRPS:    rpsSparkline(results).Max(),
		DurationMs: elapsed.Milliseconds(),
	}
	rec, err := storage.NewRecord(strings.TrimSuffix(c.title, ":"), "http://"+srv.Addr()+c.path, tool, tbl, summary)
	if err == nil {
		err = h.Store.Save(rec)
	}
	if err != nil {
		h.Log.Warn("failed to save sweep to history", zap.String("chart", c.title), zap.Error(err))
		return
	}
	h.Log.Debug("sweep saved", zap.String("id", rec.ID), zap.String("db", h.Store.Path()))
}

func rpsSparkline(results []runner.RunResult) components.Sparkline {
	spark := components.NewSparkline("req/sec", styles.Subtle)
	for _, res := range results {
		v, ok := res.Fields.Float("requests_per_second")
		if !ok {
			v = -1
		}
		spark.Add(v)
	}
	return spark
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
