package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"startype_service/internal/domain/model"
)

// naTokens are the cell values read as missing, in addition to the empty cell.
var naTokens = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {},
	"N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {},
	"nan": {}, "null": {},
}

// Batch is an uploaded table projected down to the required columns.
type Batch struct {
	Rows []model.InputData
}

// Table returns the predictor input for the batch.
func (b *Batch) Table() model.Table {
	rows := make([][]float64, len(b.Rows))
	for i, row := range b.Rows {
		rows[i] = row.Features()
	}
	return model.NewTable(rows)
}

// ParseBatch decodes a CSV upload and shapes it for prediction. Every
// failure is a *BatchError.
func ParseBatch(data []byte) (*Batch, error) {
	text, err := decodeUTF8(data)
	if err != nil {
		return nil, &BatchError{Kind: ErrDecode, Err: err}
	}

	header, records, err := readCSV(text)
	if err != nil {
		return nil, &BatchError{Kind: ErrInternal, Err: err}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	required := model.RequiredColumns()
	var missing []string
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &BatchError{Kind: ErrMissingColumns, Missing: missing}
	}

	// columns[c][r] is the raw cell of required column c in row r.
	columns := make([][]string, len(required))
	for c, name := range required {
		col := make([]string, len(records))
		at := index[name]
		for r, rec := range records {
			if at < len(rec) {
				col[r] = rec[at]
			}
		}
		columns[c] = col
	}

	for _, col := range columns {
		for _, cell := range col {
			if isMissing(cell) {
				return nil, &BatchError{Kind: ErrMissingValues}
			}
		}
	}

	values := make([][]model.Value, len(required))
	for c, col := range columns {
		converted, err := convertColumn(required[c], col)
		if err != nil {
			return nil, &BatchError{Kind: ErrInternal, Err: err}
		}
		values[c] = converted
	}

	rows := make([]model.InputData, len(records))
	for r := range rows {
		rows[r] = model.InputData{
			Temperature:       values[0][r],
			Luminosity:        values[1][r],
			Radius:            values[2][r],
			AbsoluteMagnitude: values[3][r],
		}
	}
	return &Batch{Rows: rows}, nil
}

// decodeUTF8 validates the upload and strips a leading byte order mark.
func decodeUTF8(data []byte) ([]byte, error) {
	for offset := 0; offset < len(data); {
		r, size := utf8.DecodeRune(data[offset:])
		if r == utf8.RuneError && size <= 1 {
			return nil, fmt.Errorf("'utf-8' codec can't decode byte 0x%02x in position %d: invalid start byte", data[offset], offset)
		}
		offset += size
	}
	text, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode upload: %w", err)
	}
	return text, nil
}

// errNoColumns is reported verbatim in the batch error payload.
var errNoColumns = errors.New("No columns to parse from file")

// readCSV returns the header row and the data rows. Rows shorter than the
// header are kept as is; longer rows are rejected.
func readCSV(text []byte) ([]string, [][]string, error) {
	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errNoColumns
	}
	if err != nil {
		return nil, nil, fmt.Errorf("tokenize data: %w", err)
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("tokenize data: %w", err)
		}
		if len(rec) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, nil, fmt.Errorf("tokenize data: expected %d fields in line %d, saw %d", len(header), line, len(rec))
		}
		records = append(records, rec)
	}
	return header, records, nil
}

func isMissing(cell string) bool {
	if cell == "" {
		return true
	}
	_, ok := naTokens[cell]
	return ok
}

// convertColumn parses one column. A column whose cells are all integer
// literals stays integer; any other numeric column is float.
func convertColumn(name string, cells []string) ([]model.Value, error) {
	out := make([]model.Value, len(cells))

	ints := true
	for i, cell := range cells {
		v, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
		if err != nil {
			ints = false
			break
		}
		out[i] = model.IntValue(v)
	}
	if ints {
		return out, nil
	}

	for i, cell := range cells {
		f, err := ParseDecimal(strings.TrimSpace(cell))
		if err != nil {
			return nil, fmt.Errorf("could not convert string to float: '%s' (column %q, row %d)", cell, name, i)
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("input contains infinity or a value too large (column %q, row %d)", name, i)
		}
		out[i] = model.FloatValue(f)
	}
	return out, nil
}

// ParseDecimal is strconv.ParseFloat without hexadecimal literals.
func ParseDecimal(s string) (float64, error) {
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(s, 64)
}
