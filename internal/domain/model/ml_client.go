package model

import "context"

// Predictor is the trained classification pipeline. Implementations are
// built once at startup and must be safe for concurrent use.
type Predictor interface {
	// Predict returns one label per table row, in row order.
	Predict(ctx context.Context, table Table) ([]Label, error)

	// Info describes the loaded model.
	Info() ModelInfo
}

// ModelInfo describes the loaded predictor.
type ModelInfo struct {
	Name       string            `json:"name"`
	Version    string            `json:"version"`
	Source     string            `json:"source"`
	Features   []string          `json:"features"`
	Classes    []Label           `json:"classes,omitempty"`
	ClassNames map[string]string `json:"class_names,omitempty"`
}
