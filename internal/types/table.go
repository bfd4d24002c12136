package types

import "context"

// Table is a named sequence of records, the unit a sink persists.
// Every row has exactly len(Columns) values.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// TableWriter persists whole tables. WriteTable returns the number of rows
// written.
type TableWriter interface {
	WriteTable(ctx context.Context, t *Table) (int64, error)
}

// TxTableWriter is a TableWriter that can also run several writes in one
// transaction. If fn returns an error every write made through w is rolled
// back.
type TxTableWriter interface {
	TableWriter
	InTx(ctx context.Context, fn func(w TableWriter) error) error
}
