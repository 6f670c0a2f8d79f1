package ui

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"startype_service/internal/domain/model"
)

const (
	maxUploadBytes = 32 << 20
	previewRows    = 100
)

// Predictor is the prediction service as seen by the UI.
type Predictor interface {
	PredictSingle(ctx context.Context, rec model.StarRecord) (model.Label, error)
	PredictMultiple(ctx context.Context, filename string, data []byte) ([]model.PredictionResult, error)
}

type Handler struct {
	api Predictor
}

func NewHandler(api Predictor) *Handler {
	return &Handler{api: api}
}

// NewRouter registers the UI routes.
func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/single", http.StatusFound)
	})
	mux.HandleFunc("GET /single", h.SingleForm)
	mux.HandleFunc("POST /single", h.SingleSubmit)
	mux.HandleFunc("GET /batch", h.BatchForm)
	mux.HandleFunc("POST /batch", h.BatchSubmit)
	mux.HandleFunc("POST /batch/download", h.BatchDownload)
	return mux
}

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	templ.Handler(c, templ.WithStatus(status)).ServeHTTP(w, r)
}

func (h *Handler) SingleForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, SinglePage(SingleView{
		Temperature:       "0",
		Luminosity:        "0.0",
		Radius:            "0.0",
		AbsoluteMagnitude: "0.0",
	}))
}

func (h *Handler) SingleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render(w, r, http.StatusBadRequest, SinglePage(SingleView{Error: "Error: " + err.Error()}))
		return
	}
	view := SingleView{
		Temperature:       strings.TrimSpace(r.PostForm.Get("temperature")),
		Luminosity:        strings.TrimSpace(r.PostForm.Get("luminosity")),
		Radius:            strings.TrimSpace(r.PostForm.Get("radius")),
		AbsoluteMagnitude: strings.TrimSpace(r.PostForm.Get("absolute_magnitude")),
	}

	rec, fieldErrors := parseSingleForm(view)
	if len(fieldErrors) > 0 {
		view.FieldErrors = fieldErrors
		render(w, r, http.StatusUnprocessableEntity, SinglePage(view))
		return
	}

	label, err := h.api.PredictSingle(r.Context(), rec)
	if err != nil {
		view.Error = "Error: " + err.Error()
		render(w, r, http.StatusOK, SinglePage(view))
		return
	}
	view.Result = "Predicted Star Type: " + label.String()
	render(w, r, http.StatusOK, SinglePage(view))
}

// parseSingleForm applies the form minimums: temperature, luminosity and
// radius may not be negative.
func parseSingleForm(view SingleView) (model.StarRecord, map[string]string) {
	errs := map[string]string{}
	var rec model.StarRecord

	if n, err := strconv.ParseInt(view.Temperature, 10, 64); err != nil {
		errs["temperature"] = "Temperature must be a whole number."
	} else if n < 0 {
		errs["temperature"] = "Temperature must be at least 0."
	} else {
		rec.Temperature = n
	}

	nonNegative := func(name, label, value string, dst *float64) {
		f, err := strconv.ParseFloat(value, 64)
		switch {
		case err != nil:
			errs[name] = label + " must be a number."
		case f < 0:
			errs[name] = label + " must be at least 0.0."
		default:
			*dst = f
		}
	}
	nonNegative("luminosity", "Luminosity", view.Luminosity, &rec.Luminosity)
	nonNegative("radius", "Radius", view.Radius, &rec.Radius)

	if f, err := strconv.ParseFloat(view.AbsoluteMagnitude, 64); err != nil {
		errs["absolute_magnitude"] = "Absolute magnitude must be a number."
	} else {
		rec.AbsoluteMagnitude = f
	}
	return rec, errs
}

func (h *Handler) BatchForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, BatchPage(BatchView{}))
}

func (h *Handler) BatchSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		render(w, r, http.StatusBadRequest, BatchPage(BatchView{Error: "Error: please choose a CSV file."}))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		render(w, r, http.StatusBadRequest, BatchPage(BatchView{Error: "Error: " + err.Error()}))
		return
	}

	view := BatchView{Filename: header.Filename}
	preview, err := previewCSV(data)
	if err != nil {
		view.Error = "Error: " + err.Error()
		render(w, r, http.StatusOK, BatchPage(view))
		return
	}
	view.Preview = preview

	results, err := h.api.PredictMultiple(r.Context(), header.Filename, data)
	if err != nil {
		view.Error = "Error: " + err.Error()
		render(w, r, http.StatusOK, BatchPage(view))
		return
	}
	if results == nil {
		results = []model.PredictionResult{}
	}
	encoded, err := json.Marshal(results)
	if err != nil {
		view.Error = "Error: " + err.Error()
		render(w, r, http.StatusOK, BatchPage(view))
		return
	}
	view.Results = results
	view.ResultsJSON = string(encoded)
	render(w, r, http.StatusOK, BatchPage(view))
}

// previewCSV parses the upload for display only; the service does its own
// validation.
func previewCSV(data []byte) (*CSVPreview, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("the uploaded file is empty")
	}
	preview := &CSVPreview{Header: records[0]}
	rows := records[1:]
	if len(rows) > previewRows {
		preview.Hidden = len(rows) - previewRows
		rows = rows[:previewRows]
	}
	preview.Rows = rows
	return preview, nil
}

// BatchDownload turns the rendered predictions back into a CSV file.
func (h *Handler) BatchDownload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	var results []model.PredictionResult
	if err := json.Unmarshal([]byte(r.PostForm.Get("results")), &results); err != nil {
		http.Error(w, "Invalid predictions", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="predictions.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write(downloadHeader())
	for _, row := range resultRows(results) {
		_ = cw.Write(row)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("write predictions.csv: %v", err)
	}
}
