package devicecsv

import (
	"bytes"
	"encoding/csv"
)

// Template returns a CSV file holding only the header row for specs.
func Template(specs []FieldSpec) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(ExpectedHeaders(specs))
	w.Flush()
	return buf.Bytes()
}
