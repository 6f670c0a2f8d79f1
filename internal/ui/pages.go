package ui

import "startype_service/internal/domain/model"

// SingleView is the state of the single star page.
type SingleView struct {
	Temperature       string
	Luminosity        string
	Radius            string
	AbsoluteMagnitude string
	// FieldErrors maps a form field name to its validation message.
	FieldErrors map[string]string
	Result      string
	Error       string
}

// CSVPreview is the uploaded table as shown before prediction.
type CSVPreview struct {
	Header []string
	Rows   [][]string
	// Hidden counts rows left out of the preview.
	Hidden int
}

// BatchView is the state of the multiple star page.
type BatchView struct {
	Filename string
	Preview  *CSVPreview
	Results  []model.PredictionResult
	// ResultsJSON carries the results into the download form.
	ResultsJSON string
	Error       string
}

const pageStyle = `body{font-family:sans-serif;margin:0;background:#0b0d1a;color:#fff}
nav{background:rgba(50,50,50,.8);padding:12px 24px}
nav a{color:#ddd;margin-right:16px;text-decoration:none}
nav a.active{color:#fff;font-weight:bold}
main{padding:24px;padding-bottom:80px}
label{display:block;margin-top:12px}
input{padding:6px}
button{background:#808080;border:none;color:#fff;padding:10px 20px;font-size:16px;margin:8px 2px;cursor:pointer;border-radius:12px}
button:hover{background:#6e6e6e}
table{border-collapse:collapse;margin-top:12px}
td,th{border:1px solid #555;padding:4px 8px}
.success{background:#1e5128;padding:12px;margin-top:12px}
.error{background:#7a1f1f;padding:12px;margin-top:12px}
.field-error{color:#ff9b9b}
footer{position:fixed;left:0;bottom:0;width:100%;background:rgba(0,0,0,.7);text-align:center;padding:10px;font-size:14px}`

func downloadHeader() []string {
	return append(model.RequiredColumns(), "predicted_type")
}

func resultRows(results []model.PredictionResult) [][]string {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			r.InputData.Temperature.String(),
			r.InputData.Luminosity.String(),
			r.InputData.Radius.String(),
			r.InputData.AbsoluteMagnitude.String(),
			r.PredictedType.String(),
		}
	}
	return rows
}
