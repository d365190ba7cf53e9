package output

import (
	"fmt"
	"io"
	"strings"
)

// Table renders aligned columns for text output.
type Table struct {
	headers   []string
	body      [][]string
	noHeader  bool
	separator string
}

// NewTable builds a table with the given column headers.
func NewTable(cols ...string) *Table {
	return &Table{headers: cols, separator: "  "}
}

// AddRow appends one row of cells.
func (tb *Table) AddRow(cells ...string) {
	tb.body = append(tb.body, cells)
}

// SetNoHeader drops the header and rule lines from the output.
func (tb *Table) SetNoHeader(hide bool) {
	tb.noHeader = hide
}

// SetSeparator replaces the default two-space column gap.
func (tb *Table) SetSeparator(sep string) {
	tb.separator = sep
}

// Render writes the aligned table to w. Lines never carry trailing
// whitespace, whatever the column padding.
func (tb *Table) Render(w io.Writer) error {
	widths := tb.columnWidths()
	if len(widths) == 0 {
		return nil
	}

	var out strings.Builder
	if len(tb.headers) > 0 && !tb.noHeader {
		tb.writeLine(&out, tb.headers, widths)

		rule := make([]string, len(widths))
		for i, n := range widths {
			rule[i] = strings.Repeat("-", n)
		}
		tb.writeLine(&out, rule, widths)
	}
	for _, row := range tb.body {
		tb.writeLine(&out, row, widths)
	}

	_, err := io.WriteString(w, out.String())
	return err
}

// String returns the rendered table.
func (tb *Table) String() string {
	var b strings.Builder
	_ = tb.Render(&b)
	return b.String()
}

// columnWidths sizes each column to its longest cell. Ragged rows widen
// the table as needed.
func (tb *Table) columnWidths() []int {
	var widths []int
	grow := func(cells []string) {
		for i, cell := range cells {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], len(cell))
		}
	}

	grow(tb.headers)
	for _, row := range tb.body {
		grow(row)
	}
	return widths
}

func (tb *Table) writeLine(b *strings.Builder, cells []string, widths []int) {
	padded := make([]string, len(widths))
	for i, n := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		padded[i] = fmt.Sprintf("%-*s", n, cell)
	}
	b.WriteString(strings.TrimRight(strings.Join(padded, tb.separator), " "))
	b.WriteByte('\n')
}
