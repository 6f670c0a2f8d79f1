package model

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is one numeric cell of an uploaded table. Cells of integer columns
// keep their integer form on the wire; float cells always render with a
// fraction or an exponent (1.0, 1e-05).
type Value struct {
	isInt bool
	i     int64
	f     float64
}

// IntValue returns an integer cell.
func IntValue(v int64) Value {
	return Value{isInt: true, i: v, f: float64(v)}
}

// FloatValue returns a float cell.
func FloatValue(v float64) Value {
	return Value{f: v}
}

// IsInt reports whether the cell came from an integer column.
func (v Value) IsInt() bool {
	return v.isInt
}

// Float returns the cell as a float64.
func (v Value) Float() float64 {
	return v.f
}

func (v Value) String() string {
	if v.isInt {
		return strconv.FormatInt(v.i, 10)
	}
	return formatFloat(v.f)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.isInt && (math.IsNaN(v.f) || math.IsInf(v.f, 0)) {
		return nil, fmt.Errorf("value %v is not representable in JSON", v.f)
	}
	return []byte(v.String()), nil
}

// UnmarshalJSON keeps integer literals as integers.
func (v *Value) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			*v = IntValue(i)
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("value must be a number, got %s", data)
	}
	*v = FloatValue(f)
	return nil
}

// formatFloat renders the shortest round-trip form, switching to exponent
// notation below 1e-4 and from 1e16 up.
func formatFloat(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
