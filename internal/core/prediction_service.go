package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"startype_service/internal/domain/model"
)

const previewRows = 5

// PredictBatch classifies every row of a CSV upload. The returned error is
// always a *BatchError; the predictor is only invoked once the whole table
// has passed validation.
func (s *PredictionService) PredictBatch(ctx context.Context, upload []byte) ([]model.PredictionResult, error) {
	ctx, span := tracer.Start(ctx, "PredictionService.PredictBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("upload.bytes", len(upload)))

	fail := func(err *BatchError) ([]model.PredictionResult, error) {
		span.SetAttributes(attribute.String("batch.error_kind", err.Kind.String()))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if upload == nil {
		return fail(&BatchError{Kind: ErrMissingFile})
	}

	batch, err := ParseBatch(upload)
	if err != nil {
		return fail(err.(*BatchError))
	}
	span.SetAttributes(attribute.Int("batch.rows", len(batch.Rows)))

	if s.verbose > 0 {
		log.Printf("Input data shape: (%d, %d)", len(batch.Rows), len(model.RequiredColumns()))
		log.Printf("Input data preview:\n%s", previewBatch(batch))
	}

	results := make([]model.PredictionResult, 0, len(batch.Rows))
	if len(batch.Rows) == 0 {
		return results, nil
	}

	table := batch.Table()
	labels, err := s.predict(ctx, table)
	if err != nil {
		return fail(&BatchError{Kind: ErrInternal, Err: err})
	}
	if len(labels) != len(batch.Rows) {
		return fail(batchErrorf(ErrInternal, "predictor returned %d labels for %d rows", len(labels), len(batch.Rows)))
	}
	if s.verbose > 0 {
		log.Printf("Predictions: %v", labels)
	}

	for i, row := range batch.Rows {
		results = append(results, model.PredictionResult{
			InputData:     row,
			PredictedType: labels[i],
		})
	}

	s.record(ctx, EndpointMultiple, table.Rows, labels)
	return results, nil
}

func previewBatch(batch *Batch) string {
	var b strings.Builder
	b.WriteString(strings.Join(model.RequiredColumns(), "\t"))
	for i, row := range batch.Rows {
		if i == previewRows {
			break
		}
		fmt.Fprintf(&b, "\n%s\t%s\t%s\t%s",
			row.Temperature, row.Luminosity, row.Radius, row.AbsoluteMagnitude)
	}
	return b.String()
}
