// Package text formats tool summaries for a terminal.
package text

import (
	"fmt"
	"io"
	"strings"
)

// Table lays out rows of cells in aligned columns. The first column is
// left-aligned and the rest are right-aligned, since they hold counts.
type Table struct {
	Padding int
	rows    [][]string
}

// Row appends one row of cells.
func (t *Table) Row(cells ...string) {
	t.rows = append(t.rows, cells)
}

// widths returns the width of the widest cell in each column.
func (t *Table) widths() []int {
	var widths []int
	for _, row := range t.rows {
		for j, cell := range row {
			if len(widths) <= j {
				widths = append(widths, 0)
			}
			if len(cell) > widths[j] {
				widths[j] = len(cell)
			}
		}
	}
	return widths
}

// Flush writes the table to w, one line per row.
func (t *Table) Flush(w io.Writer) error {
	widths := t.widths()
	pad := strings.Repeat(" ", t.Padding)
	for _, row := range t.rows {
		line := &strings.Builder{}
		for j, cell := range row {
			if j == 0 {
				fmt.Fprintf(line, "%-*s", widths[j], cell)
				continue
			}
			fmt.Fprintf(line, "%s%*s", pad, widths[j], cell)
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}
