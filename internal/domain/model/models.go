package model

// Wire names of the measurement columns. The same names key the single-record
// request body, the CSV header and the input_data objects of batch results.
const (
	ColumnTemperature       = "Temperature (K)"
	ColumnLuminosity        = "Luminosity(L/Lo)"
	ColumnRadius            = "Radius(R/Ro)"
	ColumnAbsoluteMagnitude = "Absolute magnitude(Mv)"
)

// RequiredColumns returns the measurement columns in predictor order.
func RequiredColumns() []string {
	return []string{
		ColumnTemperature,
		ColumnLuminosity,
		ColumnRadius,
		ColumnAbsoluteMagnitude,
	}
}

// StarRecord is one star submitted through the single-record endpoint.
type StarRecord struct {
	Temperature       int64   `json:"Temperature (K)"`
	Luminosity        float64 `json:"Luminosity(L/Lo)"`
	Radius            float64 `json:"Radius(R/Ro)"`
	AbsoluteMagnitude float64 `json:"Absolute magnitude(Mv)"`
}

// Features returns the record as one predictor row.
func (r StarRecord) Features() []float64 {
	return []float64{
		float64(r.Temperature),
		r.Luminosity,
		r.Radius,
		r.AbsoluteMagnitude,
	}
}

// InputData is one projected row of a batch upload.
type InputData struct {
	Temperature       Value `json:"Temperature (K)"`
	Luminosity        Value `json:"Luminosity(L/Lo)"`
	Radius            Value `json:"Radius(R/Ro)"`
	AbsoluteMagnitude Value `json:"Absolute magnitude(Mv)"`
}

// Features returns the row as one predictor row.
func (d InputData) Features() []float64 {
	return []float64{
		d.Temperature.Float(),
		d.Luminosity.Float(),
		d.Radius.Float(),
		d.AbsoluteMagnitude.Float(),
	}
}

// PredictionResult pairs one batch row with its predicted label.
type PredictionResult struct {
	InputData     InputData `json:"input_data"`
	PredictedType Label     `json:"predicted_type"`
}

// Table is the predictor input: the required columns in fixed order and one
// feature row per record.
type Table struct {
	Columns []string
	Rows    [][]float64
}

// NewTable builds a table over the required columns.
func NewTable(rows [][]float64) Table {
	return Table{
		Columns: RequiredColumns(),
		Rows:    rows,
	}
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}
