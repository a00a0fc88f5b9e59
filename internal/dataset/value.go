package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// Value is a single typed cell. The zero Value is Null.
type Value struct {
	kind Kind
	s    string
	f    float64
	b    bool
	// lit is the source text of a number whose canonical rendering would
	// differ from it, such as "1.0" or an integer beyond float64 precision.
	lit string
}

// Null returns the missing-value marker.
func Null() Value { return Value{} }

// Str returns a string Value.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Num returns a numeric Value.
func Num(f float64) Value { return Value{kind: KindNumber, f: f} }

// NumLiteral parses a number and keeps its text, so that rendering it
// gives back exactly what was read.
func NumLiteral(text string) (Value, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		var ne *strconv.NumError
		if !errors.As(err, &ne) || !errors.Is(ne.Err, strconv.ErrRange) {
			return Null(), fmt.Errorf("invalid number %q: %w", text, err)
		}
	}
	return numText(f, text), nil
}

func numText(f float64, text string) Value {
	v := Num(f)
	if text != formatNumber(f) {
		v.lit = text
	}
	return v
}

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the missing-value marker.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric content of v. NaN counts as not numeric.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber || math.IsNaN(v.f) {
		return 0, false
	}
	return v.f, true
}

// Text returns the string content of v when it holds a string.
func (v Value) Text() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Boolean returns the boolean content of v when it holds a bool.
func (v Value) Boolean() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Equal reports whether v and o hold the same variant and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindNumber:
		if math.IsNaN(v.f) || math.IsNaN(o.f) {
			return math.IsNaN(v.f) && math.IsNaN(o.f)
		}
		if math.IsInf(v.f, 0) {
			return v.f == o.f
		}
		return v.f == o.f && v.String() == o.String()
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}

// String renders v the way it is written to CSV. Null renders empty.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		if v.lit != "" {
			return v.lit
		}
		return formatNumber(v.f)
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	default:
		return ""
	}
}

// Interface returns v as a plain Go value (nil, string, float64 or bool).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return v.f
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// MarshalJSON encodes v as the matching JSON scalar. A number read from
// text is written as that text. Non-finite numbers become null since JSON
// cannot carry them.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber {
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return []byte("null"), nil
		}
		if v.lit != "" && isJSONNumber(v.lit) {
			return []byte(v.lit), nil
		}
	}
	return json.Marshal(v.Interface())
}

func isJSONNumber(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}
	return json.Valid([]byte(s))
}

// UnmarshalJSON decodes a JSON scalar into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	val, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// FromAny converts a decoded scalar into a Value.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case string:
		return Str(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Num(t), nil
	case float32:
		return Num(float64(t)), nil
	case int:
		return Num(float64(t)), nil
	case int64:
		return Num(float64(t)), nil
	case json.Number:
		return NumLiteral(t.String())
	default:
		return Null(), fmt.Errorf("unsupported scalar type %T", x)
	}
}

// ParseCell infers the type of a raw CSV cell: empty is Null, numbers
// (including nan/inf spellings) are numeric, True/False in either case
// convention are booleans and everything else is a string.
func ParseCell(s string) Value {
	if s == "" {
		return Null()
	}
	switch s {
	case "True", "true", "TRUE":
		return Bool(true)
	case "False", "false", "FALSE":
		return Bool(false)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return numText(f, s)
	}
	return Str(s)
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if f == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.Replace(strconv.FormatFloat(f, 'g', -1, 64), "e+", "e", 1)
}
