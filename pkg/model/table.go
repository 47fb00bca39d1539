// pkg/model/table.go
package model

// Row maps column name to value. A nil value is null.
type Row map[string]interface{}

// Table is an in-memory geometry table: ordered columns plus rows
type Table struct {
	Columns []Column
	Rows    []Row
}

// NewTable creates an empty table with the given columns
func NewTable(columns ...Column) *Table {
	cols := make([]Column, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// NumRows returns the number of rows
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// NumColumns returns the number of columns
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// ColumnNames returns column names in table order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// ColumnIndex returns the position of the named column, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists (exact match)
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Column returns the named column (exact match)
func (t *Table) Column(name string) (Column, bool) {
	if i := t.ColumnIndex(name); i >= 0 {
		return t.Columns[i], true
	}
	return Column{}, false
}

// Append adds a row
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// Clone returns a copy whose column slice and row maps may be changed freely.
// Values themselves are shared.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: make([]Column, len(t.Columns)),
		Rows:    make([]Row, len(t.Rows)),
	}
	copy(out.Columns, t.Columns)
	for i, row := range t.Rows {
		out.Rows[i] = row.Clone()
	}
	return out
}

// WithRows returns a table sharing t's columns with the given rows
func (t *Table) WithRows(rows []Row) *Table {
	out := &Table{
		Columns: make([]Column, len(t.Columns)),
		Rows:    rows,
	}
	copy(out.Columns, t.Columns)
	return out
}

// Head returns a table with at most n leading rows
func (t *Table) Head(n int) *Table {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.WithRows(t.Rows[:n])
}

// NullCounts returns the number of null values per column
func (t *Table) NullCounts() map[string]int {
	counts := make(map[string]int, len(t.Columns))
	for _, col := range t.Columns {
		counts[col.Name] = 0
	}
	for _, row := range t.Rows {
		for _, col := range t.Columns {
			if row[col.Name] == nil {
				counts[col.Name]++
			}
		}
	}
	return counts
}

// TotalNulls returns the number of null cells
func (t *Table) TotalNulls() int {
	total := 0
	for _, n := range t.NullCounts() {
		total += n
	}
	return total
}

// Clone copies the row map
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
