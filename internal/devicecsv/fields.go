package devicecsv

// fields.go defines the device inventory columns and row-level checks.
//
// A Required field must be present as a header. AllowEmpty lets a present
// column hold blank cells; without it a blank cell rejects the row.

import (
	"fmt"
	"strings"
)

// FieldSpec describes one expected CSV column.
type FieldSpec struct {
	Name       string
	Required   bool
	AllowEmpty bool
}

// DeviceFields is the device inventory header set, in template order.
var DeviceFields = []FieldSpec{
	{Name: "name", Required: true},
	{Name: "model", Required: true, AllowEmpty: true},
	{Name: "serial", Required: true, AllowEmpty: true},
	{Name: "rack", Required: true, AllowEmpty: true},
	{Name: "site", Required: true, AllowEmpty: true},
	{Name: "notes", Required: true, AllowEmpty: true},
}

// ExpectedHeaders returns the header names of specs in order.
func ExpectedHeaders(specs []FieldSpec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Name
	}
	return out
}

// headerIndex maps lower-cased header names to their position.
type headerIndex map[string]int

func makeHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(cleanCell(h))
		if _, dup := idx[key]; dup {
			continue // first occurrence wins
		}
		idx[key] = i
	}
	return idx
}

// missingHeaders lists the required specs absent from idx.
func missingHeaders(idx headerIndex, specs []FieldSpec) []string {
	var missing []string
	for _, s := range specs {
		if !s.Required {
			continue
		}
		if _, ok := idx[strings.ToLower(s.Name)]; !ok {
			missing = append(missing, s.Name)
		}
	}
	return missing
}

// validateRow returns the first problem with row, or nil.
func validateRow(row []string, idx headerIndex, specs []FieldSpec) error {
	for _, s := range specs {
		pos, ok := idx[strings.ToLower(s.Name)]
		if !ok {
			continue
		}
		if pos >= len(row) {
			if s.Required && !s.AllowEmpty {
				return fmt.Errorf("missing value for %q", s.Name)
			}
			continue
		}
		if cleanCell(row[pos]) == "" && s.Required && !s.AllowEmpty {
			return fmt.Errorf("empty required field %q", s.Name)
		}
	}
	return nil
}

// cleanCell trims whitespace and a leading byte order mark.
func cleanCell(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\uFEFF"))
}
