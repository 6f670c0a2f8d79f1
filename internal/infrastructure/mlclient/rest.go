package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"startype_service/internal/domain/model"
)

type MLRequest struct {
	Columns []string    `json:"columns"`
	Data    [][]float64 `json:"data"`
}

type MLResponse struct {
	Predictions []model.Label `json:"predictions"`
}

// Predict sends the table to the model server in one request.
func (c *HTTPMLClient) Predict(ctx context.Context, table model.Table) ([]model.Label, error) {
	reqBody := MLRequest{
		Columns: table.Columns,
		Data:    table.Rows,
	}
	if reqBody.Data == nil {
		reqBody.Data = [][]float64{}
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ML request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create ML request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := model.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ML service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ML service returned status: %d", resp.StatusCode)
	}

	var mlResp MLResponse
	if err := json.NewDecoder(resp.Body).Decode(&mlResp); err != nil {
		return nil, fmt.Errorf("failed to decode ML response: %w", err)
	}
	if len(mlResp.Predictions) != table.Len() {
		return nil, fmt.Errorf("ML service returned %d predictions for %d rows", len(mlResp.Predictions), table.Len())
	}

	return mlResp.Predictions, nil
}
