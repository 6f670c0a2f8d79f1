package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"startype_service/internal/core"
	"startype_service/internal/domain/model"
	"startype_service/internal/domain/repository"
)

const (
	// multipartMemory is the part of a multipart form kept in memory; the
	// rest spills to temporary files.
	multipartMemory = 32 << 20

	defaultPredictionsLimit = 50
	maxPredictionsLimit     = 500
)

type Handler struct {
	service   *core.PredictionService
	maxUpload int64
}

func NewHandler(service *core.PredictionService, maxUpload int64) *Handler {
	return &Handler{service: service, maxUpload: maxUpload}
}

type singleResponse struct {
	PredictedType model.Label `json:"predicted_type"`
}

type batchResponse struct {
	Predictions []model.PredictionResult `json:"predictions"`
}

type predictionsResponse struct {
	Predictions []repository.PredictionRow `json:"predictions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Root is the liveness check.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "App running!"})
}

// PredictSingle classifies one star sent as a JSON object.
func (h *Handler) PredictSingle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUpload))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := decodeStarRecord(body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, err)
		return
	}

	label, err := h.service.PredictSingle(r.Context(), rec)
	if err != nil {
		log.Printf("Error predicting single record (request %s): %v", model.RequestIDFromContext(r.Context()), err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, singleResponse{PredictedType: label})
}

// PredictMultiple classifies every row of an uploaded CSV file. Failures are
// reported in the body; the status is always 200.
func (h *Handler) PredictMultiple(w http.ResponseWriter, r *http.Request) {
	upload, err := h.readUpload(w, r)
	if err != nil {
		h.writeBatchError(r.Context(), w, err)
		return
	}

	results, err := h.service.PredictBatch(r.Context(), upload)
	if err != nil {
		h.writeBatchError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, batchResponse{Predictions: results})
}

// readUpload returns the content of the "file" form field, or nil when the
// request carries no file.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, &core.BatchError{Kind: core.ErrInternal, Err: fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit)}
		case errors.Is(err, http.ErrNotMultipart):
			return nil, nil
		default:
			return nil, &core.BatchError{Kind: core.ErrInternal, Err: fmt.Errorf("parse form: %w", err)}
		}
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, &core.BatchError{Kind: core.ErrInternal, Err: fmt.Errorf("open upload: %w", err)}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &core.BatchError{Kind: core.ErrInternal, Err: fmt.Errorf("read upload: %w", err)}
	}
	return data, nil
}

func (h *Handler) writeBatchError(ctx context.Context, w http.ResponseWriter, err error) {
	var batchErr *core.BatchError
	if !errors.As(err, &batchErr) {
		batchErr = &core.BatchError{Kind: core.ErrInternal, Err: err}
	}
	if batchErr.Kind == core.ErrInternal || batchErr.Kind == core.ErrDecode {
		log.Printf("Internal server error (request %s): %v", model.RequestIDFromContext(ctx), batchErr.Err)
	}
	writeJSON(w, http.StatusOK, errorResponse{Error: batchErr.Error()})
}

// Model describes the loaded predictor.
func (h *Handler) Model(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ModelInfo())
}

// Predictions lists the newest recorded predictions.
func (h *Handler) Predictions(w http.ResponseWriter, r *http.Request) {
	limit := defaultPredictionsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxPredictionsLimit)
	}

	rows, err := h.service.RecentPredictions(r.Context(), limit)
	if errors.Is(err, core.ErrRecordingDisabled) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		log.Printf("Error listing predictions: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list predictions"})
		return
	}

	writeJSON(w, http.StatusOK, predictionsResponse{Predictions: rows})
}
