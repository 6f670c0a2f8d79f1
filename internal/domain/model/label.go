package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// LabelKind tells which representation a Label carries.
type LabelKind uint8

const (
	LabelNone LabelKind = iota
	LabelInt
	LabelString
)

// Label is a predicted class. The service never interprets it; it is passed
// through to the wire as a JSON number or string, whichever the model emits.
type Label struct {
	kind LabelKind
	i    int64
	s    string
}

// IntLabel returns an integer class label.
func IntLabel(v int64) Label {
	return Label{kind: LabelInt, i: v}
}

// StringLabel returns a string class label.
func StringLabel(v string) Label {
	return Label{kind: LabelString, s: v}
}

// Kind reports the label representation.
func (l Label) Kind() LabelKind {
	return l.kind
}

// Int returns the integer value and whether the label is an integer class.
func (l Label) Int() (int64, bool) {
	return l.i, l.kind == LabelInt
}

// String renders the label as text. Integer labels render in decimal.
func (l Label) String() string {
	switch l.kind {
	case LabelInt:
		return strconv.FormatInt(l.i, 10)
	case LabelString:
		return l.s
	default:
		return ""
	}
}

// Equal reports whether two labels carry the same kind and value.
func (l Label) Equal(other Label) bool {
	return l == other
}

func (l Label) MarshalJSON() ([]byte, error) {
	switch l.kind {
	case LabelInt:
		return []byte(strconv.FormatInt(l.i, 10)), nil
	case LabelString:
		return json.Marshal(l.s)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a JSON string or an integral JSON number.
func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = Label{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = StringLabel(s)
		return nil
	}

	if i, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*l = IntLabel(i)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("label must be a string or an integer, got %s", data)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return fmt.Errorf("label must be a string or an integer, got %s", data)
	}
	*l = IntLabel(int64(f))
	return nil
}
