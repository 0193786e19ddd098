package storage

import (
	"time"

	"github.com/google/uuid"

	"abchart/internal/table"
)

// SweepRecord is one rendered sweep kept for later comparison.
type SweepRecord struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Title     string       `json:"title"`
	Target    string       `json:"target"`
	Tool      string       `json:"tool"`
	Rows      [][]string   `json:"rows"`
	Summary   SweepSummary `json:"summary"`
}

type SweepSummary struct {
	Runs       int     `json:"runs"`
	PeakRPS    float64 `json:"peak_rps"`
	DurationMs int64   `json:"duration_ms"`
}

// NewRecord snapshots t as text. IDs are UUIDv7 so keys sort by time.
func NewRecord(title, target, tool string, t table.Table, summary SweepSummary) (SweepRecord, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return SweepRecord{}, err
	}
	return SweepRecord{
		ID:        id.String(),
		Timestamp: time.Now(),
		Title:     title,
		Target:    target,
		Tool:      tool,
		Rows:      t.Strings(),
		Summary:   summary,
	}, nil
}

// Table rebuilds a printable table from the stored rows.
func (r SweepRecord) Table() table.Table {
	t := make(table.Table, len(r.Rows))
	for i, row := range r.Rows {
		cells := make([]any, len(row))
		for j, c := range row {
			cells[j] = c
		}
		t[i] = cells
	}
	return t
}
