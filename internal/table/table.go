package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Placeholder is printed for a cell whose value is unknown.
const Placeholder = "-"

// Table is a header row followed by data rows. Cells may be of any type.
type Table [][]any

// Header returns the first row, or nil for an empty table.
func (t Table) Header() []any {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// Data returns the rows after the header.
func (t Table) Data() [][]any {
	if len(t) < 2 {
		return nil
	}
	return t[1:]
}

// Strings renders every cell to text, padding short rows to the widest row.
func (t Table) Strings() [][]string {
	cols := 0
	for _, row := range t {
		cols = max(cols, len(row))
	}

	out := make([][]string, len(t))
	for i, row := range t {
		cells := make([]string, cols)
		for j := range cells {
			if j < len(row) {
				cells[j] = Cell(row[j])
			} else {
				cells[j] = Placeholder
			}
		}
		out[i] = cells
	}
	return out
}

// Cell renders one value; nil becomes Placeholder.
func Cell(v any) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprint(v)
}

// Widths is the display width of the widest cell in each column.
func Widths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for j, cell := range row {
			if j >= len(widths) {
				widths = append(widths, 0)
			}
			widths[j] = max(widths[j], runewidth.StringWidth(cell))
		}
	}
	return widths
}

// Format renders t with every cell right-justified to its column width.
func Format(t Table) string {
	var b strings.Builder
	_ = Fprint(&b, t) // a strings.Builder never fails
	return b.String()
}

// Fprint writes t to w one line per row and returns the first write error.
func Fprint(w io.Writer, t Table) error {
	rows := t.Strings()
	widths := Widths(rows)

	for _, row := range rows {
		var line strings.Builder
		for j, cell := range row {
			if j > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(strings.Repeat(" ", widths[j]-runewidth.StringWidth(cell)))
			line.WriteString(cell)
			line.WriteString(" |")
		}
		line.WriteByte('\n')
		if _, err := io.WriteString(w, line.String()); err != nil {
			return err
		}
	}
	return nil
}
