package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"startype_service/internal/domain/model"
)

// StatusError is a non-200 answer from the prediction service.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d", e.Code)
}

// ServiceError is an {"error": ...} payload from the batch endpoint.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// APIClient calls the prediction service.
type APIClient struct {
	client  *http.Client
	baseURL string
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// PredictSingle classifies one star.
func (c *APIClient) PredictSingle(ctx context.Context, rec model.StarRecord) (model.Label, error) {
	jsonData, err := json.Marshal(rec)
	if err != nil {
		return model.Label{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict-single/", bytes.NewBuffer(jsonData))
	if err != nil {
		return model.Label{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result struct {
		PredictedType model.Label `json:"predicted_type"`
	}
	if err := c.do(req, &result); err != nil {
		return model.Label{}, err
	}
	return result.PredictedType, nil
}

// PredictMultiple uploads a CSV file for batch classification.
func (c *APIClient) PredictMultiple(ctx context.Context, filename string, data []byte) ([]model.PredictionResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict-multiple/", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result struct {
		Predictions []model.PredictionResult `json:"predictions"`
		Error       string                   `json:"error"`
	}
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, &ServiceError{Message: result.Error}
	}
	return result.Predictions, nil
}

func (c *APIClient) do(req *http.Request, out any) error {
	if id := model.RequestIDFromContext(req.Context()); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
