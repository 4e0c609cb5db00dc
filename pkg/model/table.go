// pkg/model/table.go
package model

import (
	"fmt"
	"strings"
	"time"
)

// Row maps a column name to a scalar cell value. Legal cell values are
// string, int64, float64, bool, time.Time, or nil for a missing value.
type Row map[string]interface{}

// Table is an in-memory tabular dataset: an ordered column list plus rows.
// Every row shares the column set established by the loader.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given column order.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{
		Columns: cols,
		Rows:    make([]Row, 0),
	}
}

// AppendRow adds a row to the table. Columns absent from the row are
// filled with nil so the shared-column-set invariant holds.
func (t *Table) AppendRow(row Row) {
	normalized := make(Row, len(t.Columns))
	for _, col := range t.Columns {
		if v, ok := row[col]; ok {
			normalized[col] = v
		} else {
			normalized[col] = nil
		}
	}
	t.Rows = append(t.Rows, normalized)
}

// RowCount returns the number of rows in the table.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnCount returns the number of columns in the table.
func (t *Table) ColumnCount() int {
	return len(t.Columns)
}

// HasColumn reports whether the table contains the named column.
// Lookup is case-insensitive; row access is by the exact column name,
// so callers holding a case-variant name must resolve it through
// ColumnIndex first.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnIndex returns the position of the named column, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	normalized := normalizeColumnName(name)
	for i, col := range t.Columns {
		if normalizeColumnName(col) == normalized {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the table. Rules operate on copies so a
// failed scrub never leaves a half-mutated input behind.
func (t *Table) Clone() *Table {
	clone := NewTable(t.Columns)
	clone.Rows = make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		copied := make(Row, len(row))
		for k, v := range row {
			copied[k] = v
		}
		clone.Rows = append(clone.Rows, copied)
	}
	return clone
}

// CellString renders a single cell for output or audit records.
// Nil cells render as the empty string.
func CellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// IsNull reports whether a cell value counts as missing: nil or an
// empty/whitespace-only string.
func IsNull(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
