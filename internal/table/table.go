// Package table provides the small in-memory table used for delimited files,
// spreadsheets and JSON API responses before they are rendered into chunks.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mwiater/tariffadvisor/internal/domain"
)

// Table is a header plus rows of string cells. Every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// byteOrderMark is written ahead of the header by spreadsheet CSV exports.
const byteOrderMark = "\ufeff"

// FromRecords builds a table whose first record is the header. Short rows are
// padded with empty cells and cells beyond the header are dropped. A leading
// byte order mark is removed from the header.
func FromRecords(records [][]string) (Table, error) {
	if len(records) == 0 {
		return Table{}, fmt.Errorf("no header row")
	}
	header := make([]string, len(records[0]))
	for i, col := range records[0] {
		if i == 0 {
			col = strings.TrimPrefix(col, byteOrderMark)
		}
		header[i] = strings.TrimSpace(col)
	}
	if len(header) == 0 {
		return Table{}, fmt.Errorf("header row is empty")
	}

	t := Table{Columns: header}
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row := make([]string, len(header))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// Index returns the position of column name, or -1.
func (t Table) Index(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at row i in column name, or "" when the column is absent.
func (t Table) Value(i int, name string) string {
	idx := t.Index(name)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return ""
	}
	return t.Rows[i][idx]
}

// RenderRow flattens row i into "col: value, col: value" in column order.
func (t Table) RenderRow(i int) string {
	parts := make([]string, len(t.Columns))
	for c, col := range t.Columns {
		parts[c] = col + ": " + t.Rows[i][c]
	}
	return strings.Join(parts, ", ")
}

// CleanPercent rewrites every present column in names from "12.5%" to "12.5".
// Columns missing from the table are skipped. Empty cells stay empty.
func (t *Table) CleanPercent(names ...string) error {
	for _, name := range names {
		idx := t.Index(name)
		if idx < 0 {
			continue
		}
		for r, row := range t.Rows {
			if strings.TrimSpace(row[idx]) == "" {
				row[idx] = ""
				continue
			}
			v, err := ParsePercent(row[idx])
			if err != nil {
				return &domain.ParseError{Source: fmt.Sprintf("column %s row %d", name, r), Err: err}
			}
			row[idx] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return nil
}

// ParsePercent parses "12.5%", " 12.5 " or "12.5" as 12.5.
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, fmt.Errorf("empty percentage")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q", s)
	}
	return v, nil
}

func isBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
