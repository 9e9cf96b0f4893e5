package table

// Table is the typed spreadsheet attached to an IDF record. It has no
// identity of its own and is serialized as an opaque JSON document.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Absent reports whether t has no columns. An absent table renders as an
// empty state rather than an error.
func (t Table) Absent() bool { return len(t.Columns) == 0 }

// Column looks up a column by key.
func (t Table) Column(key string) (Column, bool) {
	if i := columnIndex(t.Columns, key); i >= 0 {
		return t.Columns[i], true
	}
	return Column{}, false
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	out := Table{Columns: cloneColumns(t.Columns)}
	if t.Rows != nil {
		out.Rows = make([]Row, len(t.Rows))
		for i, r := range t.Rows {
			out.Rows[i] = r.clone()
		}
	}
	return out
}

// Create returns a table with the default schema and no rows.
func Create() Table {
	return Table{Columns: DefaultColumns(), Rows: []Row{}}
}

// AddRow appends a row with every schema key set to "".
func AddRow(t Table) Table {
	return Table{Columns: t.Columns, Rows: appendEmptyRow(t.Rows, t.Columns)}
}

// RemoveRow removes the row at index. Later rows shift down by one.
func RemoveRow(t Table, index int) (Table, error) {
	rows, err := removeRowAt(t.Rows, index)
	if err != nil {
		return Table{}, err
	}
	return Table{Columns: t.Columns, Rows: rows}, nil
}

// UpdateCell stores v at rows[rowIndex][key]. The row index is checked
// before the column key.
func UpdateCell(t Table, rowIndex int, key string, v Value) (Table, error) {
	if rowIndex < 0 || rowIndex >= len(t.Rows) {
		return Table{}, &IndexError{Index: rowIndex, Len: len(t.Rows)}
	}
	col, ok := t.Column(key)
	if !ok {
		return Table{}, &UnknownColumnError{Key: key}
	}
	rows := make([]Row, len(t.Rows))
	copy(rows, t.Rows)
	rows[rowIndex] = WriteCell(rows[rowIndex], col, v)
	return Table{Columns: t.Columns, Rows: rows}, nil
}

// Replace discards the current table and returns a copy of next after
// validating its schema. Nothing is merged.
func Replace(_ Table, next Table) (Table, error) {
	if err := ValidateColumns(next.Columns); err != nil {
		return Table{}, err
	}
	out := next.Clone()
	if out.Rows == nil {
		out.Rows = []Row{}
	}
	return out, nil
}
