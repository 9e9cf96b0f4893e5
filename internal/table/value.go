package table

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

type valueKind uint8

const (
	kindNull valueKind = iota
	kindText
	kindNumber
)

// Value is a single cell: a string, a number, or null.
//
// Number values keep their original literal so that a stored "1.50" is
// written back unchanged.
type Value struct {
	kind valueKind
	lit  string
}

// Null returns the null value. A missing key reads as Null.
func Null() Value { return Value{} }

// Text returns a string value.
func Text(s string) Value { return Value{kind: kindText, lit: s} }

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{kind: kindNumber, lit: strconv.FormatFloat(f, 'f', -1, 64)}
}

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == kindNull }

// IsNumber reports whether v was stored as a JSON number.
func (v Value) IsNumber() bool { return v.kind == kindNumber }

// IsEmpty reports whether v is null or a blank string.
func (v Value) IsEmpty() bool {
	return v.kind == kindNull || strings.TrimSpace(v.lit) == ""
}

// String returns the textual form of v; null is "".
func (v Value) String() string { return v.lit }

// Float parses v as a number. Text values are parsed leniently.
func (v Value) Float() (float64, bool) {
	if v.kind == kindNull {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.lit), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindText:
		return json.Marshal(v.lit)
	case kindNumber:
		return []byte(v.lit), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. Booleans, arrays and objects
// are kept as text holding their raw JSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Null()
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = Value{kind: kindNumber, lit: n.String()}
	default:
		*v = Text(string(data))
	}
	return nil
}
