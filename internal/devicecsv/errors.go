package devicecsv

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse reports a structural failure that aborts the whole import.
var ErrParse = errors.New("csv parse error")

// ParseError describes why a file could not be imported at all.
type ParseError struct {
	Missing []string // Required headers that were not found
	Reason  string
	Err     error // Underlying reader error, if any
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("csv parse error")
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing required columns: %s", strings.Join(e.Missing, ", "))
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

// RowError is a single rejected data row. Rejected rows do not abort the
// import.
type RowError struct {
	Line   int      `json:"line"` // 1-based line in the file
	Reason string   `json:"reason"`
	Data   []string `json:"data,omitempty"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}
