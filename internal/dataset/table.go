package dataset

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Row maps column name to cell value.
type Row map[string]Value

// Table is an ordered set of rows over named columns.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// NewTable creates an empty table with the given columns.
// Duplicate column names are rejected.
func NewTable(columns ...string) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if _, dup := t.index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AddColumn appends a column filled with Null and returns its position.
// An existing column is left untouched.
func (t *Table) AddColumn(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	i := len(t.columns)
	t.index[name] = i
	t.columns = append(t.columns, name)
	for r := range t.rows {
		t.rows[r] = append(t.rows[r], Null())
	}
	return i
}

// AppendRow adds a row. The number of values must match the column count.
func (t *Table) AppendRow(values ...Value) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("row has %d values, expected %d", len(values), len(t.columns))
	}
	row := make([]Value, len(values))
	copy(row, values)
	t.rows = append(t.rows, row)
	return nil
}

// AppendRecord adds a row from a column-keyed record. Columns missing from
// the record are Null; keys that are not columns are added first, sorted.
func (t *Table) AppendRecord(rec Row) {
	var missing []string
	for k := range rec {
		if !t.HasColumn(k) {
			missing = append(missing, k)
		}
	}
	slices.Sort(missing)
	for _, k := range missing {
		t.AddColumn(k)
	}
	row := make([]Value, len(t.columns))
	for k, v := range rec {
		row[t.index[k]] = v
	}
	t.rows = append(t.rows, row)
}

// Value returns the cell at row i in the named column, or Null when the
// column does not exist.
func (t *Table) Value(i int, column string) Value {
	c, ok := t.index[column]
	if !ok {
		return Null()
	}
	return t.rows[i][c]
}

// Column returns a copy of all cells in the named column.
func (t *Table) Column(name string) ([]Value, bool) {
	c, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[c]
	}
	return out, true
}

// Record returns row i keyed by column name.
func (t *Table) Record(i int) Row {
	rec := make(Row, len(t.columns))
	for c, name := range t.columns {
		rec[name] = t.rows[i][c]
	}
	return rec
}

// Records returns every row keyed by column name.
func (t *Table) Records() []Row {
	out := make([]Row, 0, len(t.rows))
	for i := range t.rows {
		out = append(out, t.Record(i))
	}
	return out
}

// Slice returns rows [offset, offset+limit) as a new table. Out-of-range
// bounds are clamped; limit <= 0 means through the last row.
func (t *Table) Slice(offset, limit int) *Table {
	if offset < 0 {
		offset = 0
	}
	if offset > len(t.rows) {
		offset = len(t.rows)
	}
	end := len(t.rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := t.emptyCopy()
	for _, r := range t.rows[offset:end] {
		out.rows = append(out.rows, append([]Value(nil), r...))
	}
	return out
}

func (t *Table) emptyCopy() *Table {
	out := &Table{
		columns: t.Columns(),
		index:   make(map[string]int, len(t.columns)),
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	return out
}

// MarshalJSON encodes the table as an array of row objects.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Records())
}
