package table

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema reports an invalid column definition or table schema.
	ErrSchema = errors.New("schema error")

	// ErrIndexOutOfRange reports a row index outside the table.
	ErrIndexOutOfRange = errors.New("row index out of range")

	// ErrUnknownColumn reports a cell reference to a key missing from the schema.
	ErrUnknownColumn = errors.New("unknown column")
)

// SchemaError describes why a column definition was rejected.
type SchemaError struct {
	Key    string // Offending column key (may be empty)
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("schema error: column %q: %s", e.Key, e.Reason)
	}
	return "schema error: " + e.Reason
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// IndexError is returned when a row index does not address an existing row.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("row index out of range: %d (rows: %d)", e.Index, e.Len)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// UnknownColumnError is returned when a cell update names a key that is not
// part of the table's schema.
type UnknownColumnError struct {
	Key string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column: %q", e.Key)
}

func (e *UnknownColumnError) Unwrap() error { return ErrUnknownColumn }
