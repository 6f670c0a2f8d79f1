package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"startype_service/internal/core"
	"startype_service/internal/domain/model"
)

// FieldError is one entry of a 422 response body.
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// ValidationError rejects a single-record request body.
type ValidationError struct {
	Detail []FieldError `json:"detail"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Detail))
	for i, d := range e.Detail {
		msgs[i] = fmt.Sprintf("%v: %s", d.Loc, d.Msg)
	}
	return "invalid request body: " + strings.Join(msgs, "; ")
}

func bodyError(loc []any, msg, typ string) *ValidationError {
	return &ValidationError{Detail: []FieldError{{Loc: loc, Msg: msg, Type: typ}}}
}

type recordField struct {
	alias   string
	name    string
	integer bool
}

// Each field is keyed by its column name, or by its snake_case name when
// the column name is absent.
var recordFields = []recordField{
	{alias: model.ColumnTemperature, name: "temperature", integer: true},
	{alias: model.ColumnLuminosity, name: "luminosity"},
	{alias: model.ColumnRadius, name: "radius"},
	{alias: model.ColumnAbsoluteMagnitude, name: "absolute_magnitude"},
}

// decodeStarRecord parses and coerces a single-record body. Every failure is
// a *ValidationError.
func decodeStarRecord(body []byte) (model.StarRecord, error) {
	var rec model.StarRecord

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return rec, bodyError([]any{"body"}, "field required", "value_error.missing")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return rec, jsonDecodeError(err)
	}
	if dec.InputOffset() < int64(len(trimmed)) {
		return rec, bodyError([]any{"body", dec.InputOffset()}, "Extra data", "value_error.jsondecode")
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return rec, bodyError([]any{"body"}, "value is not a valid dict", "type_error.dict")
	}

	verr := &ValidationError{}
	values := make([]float64, len(recordFields))
	for i, f := range recordFields {
		v, present := obj[f.alias]
		if !present {
			v, present = obj[f.name]
		}
		loc := []any{"body", f.alias}
		switch {
		case !present:
			verr.Detail = append(verr.Detail, FieldError{Loc: loc, Msg: "field required", Type: "value_error.missing"})
		case v == nil:
			verr.Detail = append(verr.Detail, FieldError{Loc: loc, Msg: "none is not an allowed value", Type: "type_error.none.not_allowed"})
		case f.integer:
			n, ok := coerceInt(v)
			if !ok {
				verr.Detail = append(verr.Detail, FieldError{Loc: loc, Msg: "value is not a valid integer", Type: "type_error.integer"})
				continue
			}
			rec.Temperature = n
		default:
			x, ok := coerceFloat(v)
			if !ok {
				verr.Detail = append(verr.Detail, FieldError{Loc: loc, Msg: "value is not a valid float", Type: "type_error.float"})
				continue
			}
			values[i] = x
		}
	}
	if len(verr.Detail) > 0 {
		return model.StarRecord{}, verr
	}

	rec.Luminosity = values[1]
	rec.Radius = values[2]
	rec.AbsoluteMagnitude = values[3]
	return rec, nil
}

func jsonDecodeError(err error) *ValidationError {
	var offset int64
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		offset = syntaxErr.Offset
	}
	return bodyError([]any{"body", offset}, err.Error(), "value_error.jsondecode")
}

// coerceInt accepts integers, integral or fractional numbers (truncated),
// booleans and decimal integer strings.
func coerceInt(v any) (int64, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		f, err := x.Float64()
		if err != nil || math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// coerceFloat accepts numbers, booleans and numeric strings. Non-finite
// results are rejected.
func coerceFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case bool:
		if x {
			f = 1
		}
	case json.Number:
		var err error
		if f, err = x.Float64(); err != nil {
			return 0, false
		}
	case string:
		var err error
		if f, err = core.ParseDecimal(strings.TrimSpace(x)); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
