package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abchart/internal/runner"
	"abchart/internal/session"
	"abchart/internal/storage"
	"abchart/internal/target"
)

// httpExecutor fetches the URL once and fakes an ab report from the body.
type httpExecutor struct {
	mu    sync.Mutex
	urls  []string
	fail  string
	after int
}

func (e *httpExecutor) Execute(_ context.Context, argv []string) ([]byte, error) {
	e.mu.Lock()
	e.urls = append(e.urls, argv[len(argv)-1])
	n := len(e.urls)
	e.mu.Unlock()

	if e.fail != "" && n > e.after {
		return []byte(e.fail), nil
	}

	resp, err := http.Get(argv[len(argv)-1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrExecutionFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return []byte(fmt.Sprintf(
		"Document Length:        %d bytes\n\nComplete requests:      %s\nFailed requests:        0\nRequests per second:    %d.00 [#/sec] (mean)\nTime per request:       1.000 [ms] (mean, across all concurrent requests)\nTransfer rate:          1.50 [Kbytes/sec] received\n",
		len(body), argv[2], len(body))), nil
}

func newTestHarness(t *testing.T, ex session.Executor) (*Harness, *bytes.Buffer) {
	t.Helper()
	port, err := freeport.GetFreePort()
	require.NoError(t, err)

	cfg := Config{
		Runner: runner.Config{
			Tool:            "ab",
			Requests:        100,
			Levels:          []int{1, 2},
			Sizes:           []int{1, 10, 100},
			SizeConcurrency: 5,
		},
		Target: target.ServerConfig{Port: port},
	}
	h := New(cfg, nil)
	h.Exec = ex
	h.Progress = nil
	out := &bytes.Buffer{}
	h.Out = out
	return h, out
}

func assertStopped(t *testing.T, port int) {
	t.Helper()
	_, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 200*time.Millisecond)
	assert.Error(t, err, "target server still listening")
}

func TestRunPrintsChartsInOrder(t *testing.T) {
	ex := &httpExecutor{}
	h, out := newTestHarness(t, ex)

	require.NoError(t, h.Run(context.Background()))
	assertStopped(t, h.Cfg.Target.Port)

	text := out.String()
	titles := []string{
		"Thread Chart (100 requests, 14 byte response body):",
		"Thread Chart (100 requests, 14 bytes via static file handler):",
		"Size Chart (100 requests, 5 threads):",
	}
	last := -1
	for _, title := range titles {
		i := strings.Index(text, title)
		require.GreaterOrEqual(t, i, 0, title)
		assert.Greater(t, i, last)
		last = i
	}

	assert.Contains(t, text, "threads | Completed | Failed | req/sec | msec/req | KB/sec |")
	assert.Contains(t, text, "bytes | Completed | Failed | req/sec | msec/req | KB/sec |")
	assert.Contains(t, text, "Tool Runs      : 7")

	require.Len(t, ex.urls, 7)
	base := fmt.Sprintf("http://127.0.0.1:%d", h.Cfg.Target.Port)
	assert.Equal(t, []string{
		base + "/",
		base + "/",
		base + "/static/index.html",
		base + "/static/index.html",
		base + "/sizer?size=1",
		base + "/sizer?size=10",
		base + "/sizer?size=100",
	}, ex.urls)

	// the target answered with real bodies: 14 bytes for / and the
	// requested length for /sizer
	assert.Contains(t, text, "\n  100 |       100 |      0 |  100.00 |    1.000 |   1.50 |")
	assert.Contains(t, text, "      2 |       100 |      0 |   14.00 |    1.000 |   1.50 |")
}

func TestRunStopsTargetOnToolNotFound(t *testing.T) {
	ex := &httpExecutor{fail: "sh: 1: ab: not found\n", after: 3}
	h, out := newTestHarness(t, ex)

	err := h.Run(context.Background())
	assert.ErrorIs(t, err, session.ErrToolNotFound)
	assert.Contains(t, err.Error(), "Thread Chart (100 requests, 14 bytes via static file handler):")
	assertStopped(t, h.Cfg.Target.Port)

	// the first chart completed and was printed before the failure
	assert.Contains(t, out.String(), "14 byte response body")
	assert.NotContains(t, out.String(), "Size Chart")
}

func TestRunInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*runner.Config)
	}{
		{"negative requests", func(c *runner.Config) { c.Requests = -1 }},
		{"zero requests", func(c *runner.Config) { c.Requests = 0 }},
		{"zero size concurrency", func(c *runner.Config) { c.SizeConcurrency = 0 }},
		{"no levels", func(c *runner.Config) { c.Levels = nil }},
		{"zero level after a valid one", func(c *runner.Config) { c.Levels = []int{1, 0} }},
		{"negative size", func(c *runner.Config) { c.Sizes = []int{1, -10} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &httpExecutor{}
			h, out := newTestHarness(t, ex)
			tt.mutate(&h.Cfg.Runner)

			err := h.Run(context.Background())
			assert.ErrorIs(t, err, session.ErrInvalidConfiguration)
			assert.Empty(t, ex.urls)
			assert.NotContains(t, out.String(), "Chart")
			assertStopped(t, h.Cfg.Target.Port)
		})
	}
}

func TestRunMissingFieldsRenderPlaceholder(t *testing.T) {
	ex := &httpExecutor{fail: "apr_socket_recv: Connection reset by peer (104)\n"}
	h, out := newTestHarness(t, ex)
	h.Cfg.Runner.Levels = []int{3}
	h.Cfg.Runner.Sizes = []int{1}

	require.NoError(t, h.Run(context.Background()))
	assert.Contains(t, out.String(), "      3 |         - |      - |       - |        - |      - |")
	assert.Contains(t, out.String(), "Partial Reports: 3")
}

func TestRunSavesHistory(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	h, _ := newTestHarness(t, &httpExecutor{})
	h.Store = store
	require.NoError(t, h.Run(context.Background()))

	items, err := store.List()
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Size Chart (100 requests, 5 threads)", items[0].Title)
	assert.Equal(t, 3, items[0].Summary.Runs)
	assert.InDelta(t, 100.0, items[0].Summary.PeakRPS, 1e-9)
	assert.Len(t, items[0].Rows, 4)
	assert.True(t, strings.HasSuffix(items[0].Target, "/sizer"))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := &httpExecutor{}
	h, _ := newTestHarness(t, ex)
	err := h.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ex.urls)
	assertStopped(t, h.Cfg.Target.Port)
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[----]", progressBar(0, 4))
	assert.Equal(t, "[██--]", progressBar(0.5, 4))
	assert.Equal(t, "[████]", progressBar(2, 4))
}

func TestShowProgress(t *testing.T) {
	var buf bytes.Buffer
	h := &Harness{Progress: &buf}
	h.showProgress(runner.Progress{Axis: runner.AxisSize, Index: 1, Total: 4, Value: 100, Path: "/sizer?size=100"})
	assert.Contains(t, buf.String(), "2/4 | bytes=100 | /sizer?size=100")
}
