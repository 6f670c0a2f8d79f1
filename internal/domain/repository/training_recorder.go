package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PredictionRow is one served prediction kept for later retraining.
type PredictionRow struct {
	ID                int64   `db:"id" json:"id"`
	RequestID         string  `db:"request_id" json:"request_id"`
	Endpoint          string  `db:"endpoint" json:"endpoint"`
	RowIndex          int     `db:"row_index" json:"row_index"`
	Temperature       float64 `db:"temperature" json:"temperature"`
	Luminosity        float64 `db:"luminosity" json:"luminosity"`
	Radius            float64 `db:"radius" json:"radius"`
	AbsoluteMagnitude float64 `db:"absolute_magnitude" json:"absolute_magnitude"`
	PredictedType     string  `db:"predicted_type" json:"predicted_type"`
	ModelVersion      string  `db:"model_version" json:"model_version"`
	RecordedAt        int64   `db:"recorded_at" json:"recorded_at"`
}

type PredictionRecorder interface {
	SavePredictions(ctx context.Context, rows []PredictionRow) error
	RecentPredictions(ctx context.Context, limit int) ([]PredictionRow, error)
}

// insertChunk keeps one INSERT below the bind variable limits of both drivers.
const insertChunk = 500

const insertPrediction = `
	INSERT INTO prediction_log (
		request_id, endpoint, row_index,
		temperature, luminosity, radius, absolute_magnitude,
		predicted_type, model_version, recorded_at
	) VALUES (
		:request_id, :endpoint, :row_index,
		:temperature, :luminosity, :radius, :absolute_magnitude,
		:predicted_type, :model_version, :recorded_at
	)`

type SQLPredictionRecorder struct {
	db *sqlx.DB
}

func NewSQLPredictionRecorder(db *sqlx.DB) *SQLPredictionRecorder {
	return &SQLPredictionRecorder{db: db}
}

// SavePredictions writes all rows in one transaction.
func (r *SQLPredictionRecorder) SavePredictions(ctx context.Context, rows []PredictionRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin prediction log transaction: %w", err)
	}
	for start := 0; start < len(rows); start += insertChunk {
		end := min(start+insertChunk, len(rows))
		if _, err := tx.NamedExecContext(ctx, insertPrediction, rows[start:end]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert predictions: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit predictions: %w", err)
	}
	return nil
}

// RecentPredictions returns the newest rows first.
func (r *SQLPredictionRecorder) RecentPredictions(ctx context.Context, limit int) ([]PredictionRow, error) {
	query := r.db.Rebind(`
		SELECT
			id, request_id, endpoint, row_index,
			temperature, luminosity, radius, absolute_magnitude,
			predicted_type, model_version, recorded_at
		FROM prediction_log
		ORDER BY id DESC
		LIMIT ?`)

	rows := []PredictionRow{}
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("query prediction log: %w", err)
	}
	return rows, nil
}
