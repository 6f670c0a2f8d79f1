package api

import (
	"errors"
	"testing"

	"startype_service/internal/domain/model"
)

func TestDecodeStarRecord(t *testing.T) {
	tests := []struct {
		name string
		body string
		want model.StarRecord
	}{
		{
			name: "column names",
			body: `{"Temperature (K)":5000,"Luminosity(L/Lo)":1.0,"Radius(R/Ro)":1.0,"Absolute magnitude(Mv)":4.5}`,
			want: model.StarRecord{Temperature: 5000, Luminosity: 1, Radius: 1, AbsoluteMagnitude: 4.5},
		},
		{
			name: "field names",
			body: `{"temperature":3068,"luminosity":0.0024,"radius":0.17,"absolute_magnitude":16.12}`,
			want: model.StarRecord{Temperature: 3068, Luminosity: 0.0024, Radius: 0.17, AbsoluteMagnitude: 16.12},
		},
		{
			name: "column name wins",
			body: `{"Temperature (K)":5000,"temperature":1,"Luminosity(L/Lo)":1,"Radius(R/Ro)":1,"Absolute magnitude(Mv)":4.5}`,
			want: model.StarRecord{Temperature: 5000, Luminosity: 1, Radius: 1, AbsoluteMagnitude: 4.5},
		},
		{
			name: "coercions",
			body: `{"Temperature (K)":5000.9,"Luminosity(L/Lo)":"2.5","Radius(R/Ro)":true,"Absolute magnitude(Mv)":" -1e1 "}`,
			want: model.StarRecord{Temperature: 5000, Luminosity: 2.5, Radius: 1, AbsoluteMagnitude: -10},
		},
		{
			name: "integer strings and negatives",
			body: `{"Temperature (K)":" 4200 ","Luminosity(L/Lo)":-1,"Radius(R/Ro)":false,"Absolute magnitude(Mv)":0}`,
			want: model.StarRecord{Temperature: 4200, Luminosity: -1, Radius: 0, AbsoluteMagnitude: 0},
		},
		{
			name: "negative fraction truncates toward zero",
			body: `{"Temperature (K)":-3.7,"Luminosity(L/Lo)":1,"Radius(R/Ro)":1,"Absolute magnitude(Mv)":1}`,
			want: model.StarRecord{Temperature: -3, Luminosity: 1, Radius: 1, AbsoluteMagnitude: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeStarRecord([]byte(tt.body))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("record = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeStarRecordRejects(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantLoc  []any
		wantType string
	}{
		{name: "empty body", body: "", wantLoc: []any{"body"}, wantType: "value_error.missing"},
		{name: "null body", body: "null", wantLoc: []any{"body"}, wantType: "value_error.missing"},
		{name: "not json", body: "{oops", wantType: "value_error.jsondecode"},
		{name: "trailing data", body: `{"a":1}}`, wantType: "value_error.jsondecode"},
		{name: "array", body: `[1,2,3]`, wantLoc: []any{"body"}, wantType: "type_error.dict"},
		{
			name:     "integer string with fraction",
			body:     `{"Temperature (K)":"5000.5","Luminosity(L/Lo)":1,"Radius(R/Ro)":1,"Absolute magnitude(Mv)":1}`,
			wantLoc:  []any{"body", model.ColumnTemperature},
			wantType: "type_error.integer",
		},
		{
			name:     "object value",
			body:     `{"Temperature (K)":1,"Luminosity(L/Lo)":{"v":1},"Radius(R/Ro)":1,"Absolute magnitude(Mv)":1}`,
			wantLoc:  []any{"body", model.ColumnLuminosity},
			wantType: "type_error.float",
		},
		{
			name:     "non finite",
			body:     `{"Temperature (K)":1,"Luminosity(L/Lo)":1,"Radius(R/Ro)":"inf","Absolute magnitude(Mv)":1}`,
			wantLoc:  []any{"body", model.ColumnRadius},
			wantType: "type_error.float",
		},
		{
			name:     "hex string",
			body:     `{"Temperature (K)":1,"Luminosity(L/Lo)":"0x1p-2","Radius(R/Ro)":1,"Absolute magnitude(Mv)":1}`,
			wantLoc:  []any{"body", model.ColumnLuminosity},
			wantType: "type_error.float",
		},
		{
			name:     "overflowing number",
			body:     `{"Temperature (K)":1,"Luminosity(L/Lo)":1,"Radius(R/Ro)":1,"Absolute magnitude(Mv)":1e400}`,
			wantLoc:  []any{"body", model.ColumnAbsoluteMagnitude},
			wantType: "type_error.float",
		},
		{
			name:     "null field",
			body:     `{"Temperature (K)":null,"Luminosity(L/Lo)":1,"Radius(R/Ro)":1,"Absolute magnitude(Mv)":1}`,
			wantLoc:  []any{"body", model.ColumnTemperature},
			wantType: "type_error.none.not_allowed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeStarRecord([]byte(tt.body))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if len(verr.Detail) != 1 {
				t.Fatalf("detail = %+v, want one entry", verr.Detail)
			}
			d := verr.Detail[0]
			if d.Type != tt.wantType {
				t.Fatalf("type = %q, want %q", d.Type, tt.wantType)
			}
			if tt.wantLoc != nil {
				if len(d.Loc) != len(tt.wantLoc) {
					t.Fatalf("loc = %v, want %v", d.Loc, tt.wantLoc)
				}
				for i := range d.Loc {
					if d.Loc[i] != tt.wantLoc[i] {
						t.Fatalf("loc = %v, want %v", d.Loc, tt.wantLoc)
					}
				}
			}
		})
	}
}
