package store

import "context"

// Table is one backing-store table read in full: ordered header names plus
// row cells as canonical-ish strings. The header→index map is computed once
// per read and never hard-coded by callers.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string

	index map[string]int
}

// ColumnMap returns the header→index map, building it on first use.
func (t *Table) ColumnMap() map[string]int {
	if t.index == nil {
		t.index = make(map[string]int, len(t.Headers))
		for i, h := range t.Headers {
			t.index[h] = i
		}
	}
	return t.index
}

// Column resolves a header name to its index.
func (t *Table) Column(name string) (int, bool) {
	idx, ok := t.ColumnMap()[name]
	return idx, ok
}

// Cell returns the named cell of the given row, or "" when the column is
// absent or the row is short.
func (t *Table) Cell(row []string, name string) string {
	idx, ok := t.Column(name)
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// TableStore is the backing-store adapter. It is the authoritative record;
// the snapshot cache only mirrors it. Rows are addressed by an id column
// rather than physical position so the store can reorder freely.
type TableStore interface {
	ReadTable(ctx context.Context, name string) (*Table, error)
	AppendRow(ctx context.Context, table string, headers, values []string) error
	WriteRow(ctx context.Context, table, idColumn, id string, headers, values []string) error
	UpdateCell(ctx context.Context, table, idColumn, id, column, value string) error
}

// Dataset table names.
const (
	TableLessons      = "lessons"
	TableReservations = "reservations"
	TableRoster       = "roster"
	TablePrices       = "price_master"
)
