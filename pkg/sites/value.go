package sites

import (
	"strconv"
	"strings"
)

// Value is a resolved attribute value.
type Value struct {
	Text    string
	Number  float64
	Numeric bool
}

// Text returns a textual value.
func Text(s string) Value {
	return Value{Text: s}
}

// Number returns a numeric value.
func Number(n float64) Value {
	return Value{Number: n, Numeric: true}
}

// String renders the value the way it is written into a cell.
func (v Value) String() string {
	if v.Numeric {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}

// IsZero reports whether the value is unset.
func (v Value) IsZero() bool {
	return !v.Numeric && v.Text == ""
}

// Matches reports whether a raw cell holds this value. Numeric values
// compare numerically so "12" matches "12.0".
func (v Value) Matches(cell string) bool {
	if v.Numeric {
		n, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		return err == nil && n == v.Number
	}
	return cell == v.Text
}

// ValueFor builds a value for a field from raw text, parsing numeric fields.
func ValueFor(f Field, raw string) Value {
	if f.Numeric() {
		if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return Number(n)
		}
	}
	return Text(raw)
}
