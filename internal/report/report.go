package report

import (
	"regexp"
	"strconv"
	"strings"
)

// Rule extracts one field from an ab report.
type Rule struct {
	ID      string
	Label   string
	Pattern *regexp.Regexp
}

// Rules is the fixed list of metrics the harness knows how to extract.
// Its order is the column order of every rendered table.
var Rules = []Rule{
	{ID: "complete_requests", Label: "Completed", Pattern: regexp.MustCompile(`(?m)^Complete requests:\s*(\d+)`)},
	{ID: "failed_requests", Label: "Failed", Pattern: regexp.MustCompile(`(?m)^Failed requests:\s*(\d+)`)},
	{ID: "requests_per_second", Label: "req/sec", Pattern: regexp.MustCompile(`(?m)^Requests per second:\s*([0-9.]+)`)},
	{ID: "time_per_request_concurrent", Label: "msec/req", Pattern: regexp.MustCompile(`(?m)^Time per request:\s*([0-9.]+).*concurrent requests\)$`)},
	{ID: "transfer_rate", Label: "KB/sec", Pattern: regexp.MustCompile(`(?m)^Transfer rate:\s*([0-9.]+)`)},
}

// Labels returns the rule labels in column order.
func Labels() []string {
	labels := make([]string, len(Rules))
	for i, r := range Rules {
		labels[i] = r.Label
	}
	return labels
}

// Fields maps a rule ID to the raw captured text. A missing key means the
// value is unknown, never zero.
type Fields map[string]string

// Parse applies every rule to raw. Extraction is best effort per field.
func Parse(raw string) Fields {
	// $ in multiline mode stops before \n only
	text := strings.ReplaceAll(raw, "\r\n", "\n")

	fields := make(Fields, len(Rules))
	for _, r := range Rules {
		m := r.Pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		fields[r.ID] = m[1]
	}
	return fields
}

// Get returns the raw text captured for id.
func (f Fields) Get(id string) (string, bool) {
	v, ok := f[id]
	return v, ok
}

// Float parses a field as a number. ok is false if the field is absent or
// not numeric.
func (f Fields) Float(id string) (float64, bool) {
	v, ok := f[id]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Values returns one cell per rule in rule order; absent fields are nil.
func (f Fields) Values() []any {
	out := make([]any, len(Rules))
	for i, r := range Rules {
		if v, ok := f[r.ID]; ok {
			out[i] = v
		}
	}
	return out
}
