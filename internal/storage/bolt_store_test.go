package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abchart/internal/table"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveListNewestFirst(t *testing.T) {
	s := openTestStore(t)

	tbl := table.Table{{"threads", "req/sec"}, {25, "103.69"}, {50, nil}}
	first, err := NewRecord("Thread Chart", "http://127.0.0.1:8080/", "ab", tbl, SweepSummary{Runs: 2, PeakRPS: 103.69})
	require.NoError(t, err)
	second, err := NewRecord("Size Chart", "http://127.0.0.1:8080/sizer", "ab", tbl, SweepSummary{})
	require.NoError(t, err)

	require.NoError(t, s.Save(first))
	require.NoError(t, s.Save(second))

	items, err := s.List()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Size Chart", items[0].Title)
	assert.Equal(t, "Thread Chart", items[1].Title)
	assert.Equal(t, [][]string{{"threads", "req/sec"}, {"25", "103.69"}, {"50", "-"}}, items[1].Rows)
	assert.Equal(t, 2, items[1].Summary.Runs)
}

func TestGetByIDAndPrefix(t *testing.T) {
	s := openTestStore(t)

	rec, err := NewRecord("Thread Chart", "t", "ab", table.Table{{"threads"}}, SweepSummary{})
	require.NoError(t, err)
	require.NoError(t, s.Save(rec))

	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Title, got.Title)

	got, err = s.Get(rec.ID[:13])
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = s.Get("ffffffff")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAmbiguousPrefix(t *testing.T) {
	s := openTestStore(t)

	a := SweepRecord{ID: "0190-aaaa", Title: "a"}
	b := SweepRecord{ID: "0190-bbbb", Title: "b"}
	require.NoError(t, s.Save(a))
	require.NoError(t, s.Save(b))

	_, err := s.Get("0190-")
	assert.ErrorContains(t, err, "ambiguous")

	got, err := s.Get("0190-b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Title)
}

func TestRecordTable(t *testing.T) {
	rec := SweepRecord{Rows: [][]string{{"bytes", "KB/sec"}, {"1", "-"}}}
	assert.Equal(t, "bytes | KB/sec |\n    1 |      - |\n", table.Format(rec.Table()))
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(SweepRecord{ID: "x", Title: "kept"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	items, err := s.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "kept", items[0].Title)
	assert.Equal(t, path, s.Path())
}
