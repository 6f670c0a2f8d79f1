package core

import (
	"fmt"
	"strings"

	"startype_service/internal/domain/model"
)

// BatchErrorKind classifies batch prediction failures.
type BatchErrorKind int

const (
	// ErrMissingFile: the request carried no file.
	ErrMissingFile BatchErrorKind = iota + 1
	// ErrDecode: the upload is not valid UTF-8 text.
	ErrDecode
	// ErrMissingColumns: a required column is absent from the header.
	ErrMissingColumns
	// ErrMissingValues: a required column holds an empty or NA cell.
	ErrMissingValues
	// ErrInternal: parsing, conversion or prediction failed.
	ErrInternal
)

func (k BatchErrorKind) String() string {
	switch k {
	case ErrMissingFile:
		return "missing_file"
	case ErrDecode:
		return "decode"
	case ErrMissingColumns:
		return "missing_columns"
	case ErrMissingValues:
		return "missing_values"
	case ErrInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// BatchError is the failure of a batch prediction. Error returns the message
// clients see in the {"error": ...} payload.
type BatchError struct {
	Kind BatchErrorKind
	// Missing lists the absent required columns for ErrMissingColumns.
	Missing []string
	Err     error
}

func (e *BatchError) Error() string {
	switch e.Kind {
	case ErrMissingFile:
		return "No file uploaded. Please upload a CSV file."
	case ErrMissingColumns:
		return "CSV must contain columns: " + strings.Join(model.RequiredColumns(), ", ")
	case ErrMissingValues:
		return "Input contains missing values. Please clean your data."
	default:
		if e.Err == nil {
			return "Internal Server Error"
		}
		return "Internal Server Error: " + e.Err.Error()
	}
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

func batchErrorf(kind BatchErrorKind, format string, args ...any) *BatchError {
	return &BatchError{Kind: kind, Err: fmt.Errorf(format, args...)}
}
