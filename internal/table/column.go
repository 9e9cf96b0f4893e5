package table

import (
	"fmt"
	"strings"
)

// ColumnType is the declared kind of a column.
type ColumnType string

const (
	TypeText   ColumnType = "text"
	TypeNumber ColumnType = "number"
	TypeDate   ColumnType = "date"
	TypeSelect ColumnType = "select"
	TypeStatus ColumnType = "status"
)

// Valid reports whether t is one of the five recognized column types.
func (t ColumnType) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeDate, TypeSelect, TypeStatus:
		return true
	}
	return false
}

// Column defines one column of a table.
type Column struct {
	Key     string     `json:"key"`
	Label   string     `json:"label"`
	Type    ColumnType `json:"type"`
	Options []string   `json:"options,omitempty"` // Only meaningful for TypeSelect
}

// DefaultColumns returns the starter fiber-allocation schema used when a
// table is created from empty. The result is a fresh slice on every call.
func DefaultColumns() []Column {
	return []Column{
		{Key: "tray", Label: "Tray", Type: TypeText},
		{Key: "panel", Label: "Patch Panel", Type: TypeText},
		{Key: "port", Label: "Port", Type: TypeNumber},
		{Key: "fiber_id", Label: "Fiber ID", Type: TypeText},
		{Key: "to_room", Label: "Destination (Room)", Type: TypeText},
		{Key: "to_panel", Label: "Destination (Panel)", Type: TypeText},
		{Key: "to_port", Label: "Destination Port", Type: TypeNumber},
		{Key: "status", Label: "Status", Type: TypeStatus},
	}
}

// ValidateColumn checks a single column definition.
func ValidateColumn(c Column) error {
	if strings.TrimSpace(c.Key) == "" {
		return &SchemaError{Reason: "column key is empty"}
	}
	if !c.Type.Valid() {
		return &SchemaError{Key: c.Key, Reason: fmt.Sprintf("unsupported type %q", c.Type)}
	}
	if c.Type == TypeSelect && len(c.Options) == 0 {
		return &SchemaError{Key: c.Key, Reason: "select column requires at least one option"}
	}
	return nil
}

// ValidateColumns checks every column and that keys are unique.
func ValidateColumns(cols []Column) error {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if err := ValidateColumn(c); err != nil {
			return err
		}
		if _, dup := seen[c.Key]; dup {
			return &SchemaError{Key: c.Key, Reason: "duplicate column key"}
		}
		seen[c.Key] = struct{}{}
	}
	return nil
}

// columnIndex returns the position of key in cols, or -1.
func columnIndex(cols []Column, key string) int {
	for i, c := range cols {
		if c.Key == key {
			return i
		}
	}
	return -1
}

// cloneColumns copies cols including each Options slice.
func cloneColumns(cols []Column) []Column {
	if cols == nil {
		return nil
	}
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = c
		if c.Options != nil {
			out[i].Options = append([]string(nil), c.Options...)
		}
	}
	return out
}
