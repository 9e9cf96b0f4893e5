package table

// Row maps column keys to cell values. A row need not hold every key; a
// missing key reads as null.
type Row map[string]Value

// clone returns a shallow copy of r.
func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// emptyRow seeds every schema key with an empty string.
func emptyRow(cols []Column) Row {
	r := make(Row, len(cols))
	for _, c := range cols {
		r[c.Key] = Text("")
	}
	return r
}

// appendEmptyRow returns rows with a new empty row at the end.
func appendEmptyRow(rows []Row, cols []Column) []Row {
	out := make([]Row, len(rows), len(rows)+1)
	copy(out, rows)
	return append(out, emptyRow(cols))
}

// removeRowAt returns rows without the row at index.
func removeRowAt(rows []Row, index int) ([]Row, error) {
	if index < 0 || index >= len(rows) {
		return nil, &IndexError{Index: index, Len: len(rows)}
	}
	out := make([]Row, 0, len(rows)-1)
	out = append(out, rows[:index]...)
	return append(out, rows[index+1:]...), nil
}
