package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"startype_service/internal/domain/model"
	"startype_service/internal/domain/repository"
)

const (
	EndpointSingle   = "single"
	EndpointMultiple = "multiple"
)

// ErrRecordingDisabled is returned when the prediction log is not configured.
var ErrRecordingDisabled = errors.New("prediction recording is disabled")

var tracer = otel.Tracer("startype_service/internal/core")

type PredictionService struct {
	predictor model.Predictor
	recorder  repository.PredictionRecorder
	saveData  bool
	verbose   int
}

func NewPredictionService(
	predictor model.Predictor,
	recorder repository.PredictionRecorder,
	saveData bool,
) *PredictionService {
	return &PredictionService{
		predictor: predictor,
		recorder:  recorder,
		saveData:  saveData && recorder != nil,
	}
}

// WithVerbose sets the debug log level; above zero, batch inputs and
// predictions are dumped to the log.
func (s *PredictionService) WithVerbose(level int) *PredictionService {
	s.verbose = level
	return s
}

// ModelInfo describes the loaded predictor.
func (s *PredictionService) ModelInfo() model.ModelInfo {
	return s.predictor.Info()
}

// PredictSingle classifies one record.
func (s *PredictionService) PredictSingle(ctx context.Context, rec model.StarRecord) (model.Label, error) {
	ctx, span := tracer.Start(ctx, "PredictionService.PredictSingle")
	defer span.End()

	labels, err := s.predict(ctx, model.NewTable([][]float64{rec.Features()}))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return model.Label{}, err
	}
	if len(labels) != 1 {
		err := fmt.Errorf("predictor returned %d labels for 1 row", len(labels))
		span.SetStatus(codes.Error, err.Error())
		return model.Label{}, err
	}

	s.record(ctx, EndpointSingle, [][]float64{rec.Features()}, labels)
	return labels[0], nil
}

// RecentPredictions returns the newest logged predictions.
func (s *PredictionService) RecentPredictions(ctx context.Context, limit int) ([]repository.PredictionRow, error) {
	if !s.saveData {
		return nil, ErrRecordingDisabled
	}
	return s.recorder.RecentPredictions(ctx, limit)
}

func (s *PredictionService) predict(ctx context.Context, table model.Table) ([]model.Label, error) {
	ctx, span := tracer.Start(ctx, "Predictor.Predict")
	defer span.End()
	span.SetAttributes(attribute.Int("predictor.rows", table.Len()))

	labels, err := s.predictor.Predict(ctx, table)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("prediction failed: %w", err)
	}
	return labels, nil
}

// record appends served predictions to the prediction log. Failures are
// logged and never reach the caller.
func (s *PredictionService) record(ctx context.Context, endpoint string, features [][]float64, labels []model.Label) {
	if !s.saveData {
		return
	}
	ctx, span := tracer.Start(ctx, "PredictionRecorder.SavePredictions")
	defer span.End()

	requestID := model.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	version := s.predictor.Info().Version
	now := time.Now().UTC().UnixMilli()

	rows := make([]repository.PredictionRow, len(labels))
	for i, label := range labels {
		f := features[i]
		rows[i] = repository.PredictionRow{
			RequestID:         requestID,
			Endpoint:          endpoint,
			RowIndex:          i,
			Temperature:       f[0],
			Luminosity:        f[1],
			Radius:            f[2],
			AbsoluteMagnitude: f[3],
			PredictedType:     label.String(),
			ModelVersion:      version,
			RecordedAt:        now,
		}
	}
	if err := s.recorder.SavePredictions(ctx, rows); err != nil {
		span.RecordError(err)
		log.Printf("Warning: failed to record %d predictions for request %s: %v", len(rows), requestID, err)
	}
}
