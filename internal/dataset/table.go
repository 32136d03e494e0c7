// Package dataset holds the in-memory tabular model shared by the parsers and the analysis pipeline.
package dataset

import "strings"

// Table is a parsed dataset: a header row and the data rows as raw text cells.
// Rows may be shorter than Headers; missing cells read as empty.
type Table struct {
	Headers []string   `json:"headers" yaml:"headers"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// NumCols returns the number of header columns.
func (t *Table) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.Headers)
}

// Empty reports whether the table has no headers.
func (t *Table) Empty() bool { return t.NumCols() == 0 }

// Cell returns the raw cell at (row, col) or "" when the row is short.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// Column returns every cell of column col in row order.
func (t *Table) Column(col int) []string {
	out := make([]string, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Cell(i, col)
	}
	return out
}

// Index returns the position of the named header, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// RowMap returns the row keyed by header name. Short rows yield "" for missing cells.
func (t *Table) RowMap(row int) map[string]string {
	m := make(map[string]string, len(t.Headers))
	for c, h := range t.Headers {
		m[h] = t.Cell(row, c)
	}
	return m
}

// Ragged returns the indices of rows whose width differs from the header.
func (t *Table) Ragged() []int {
	var out []int
	for i, r := range t.Rows {
		if len(r) != len(t.Headers) {
			out = append(out, i)
		}
	}
	return out
}

// Trimmed returns the cell with surrounding whitespace removed.
func (t *Table) Trimmed(row, col int) string {
	return strings.TrimSpace(t.Cell(row, col))
}
