package mlclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"startype_service/internal/domain/model"
)

// HTTPMLClient is a Predictor backed by a remote model server.
type HTTPMLClient struct {
	baseURL string
	client  *http.Client

	mu   sync.RWMutex
	info model.ModelInfo
}

var _ model.Predictor = (*HTTPMLClient)(nil)

func NewHTTPMLClient(baseURL string, timeout time.Duration) *HTTPMLClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &HTTPMLClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		info: model.ModelInfo{Source: "remote:" + baseURL},
	}
}

// Connect fetches the served model description. It must succeed before the
// client serves predictions.
func (c *HTTPMLClient) Connect(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/model", nil)
	if err != nil {
		return fmt.Errorf("failed to create model request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error getting model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info model.ModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("error decoding model: %w", err)
	}
	if !slices.Equal(info.Features, model.RequiredColumns()) {
		return fmt.Errorf("remote model features %q do not match the required columns", info.Features)
	}
	info.Source = "remote:" + c.baseURL

	c.mu.Lock()
	c.info = info
	c.mu.Unlock()
	return nil
}

func (c *HTTPMLClient) Info() model.ModelInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info
}
