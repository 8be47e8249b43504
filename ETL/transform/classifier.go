package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// ErrSchema is matched by every SchemaError.
var ErrSchema = errors.New("schema violation")

// SchemaError means the source cannot produce a headcount at all.
type SchemaError struct {
	Missing []string
	Reason  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema violation: %s (missing columns: %s)", e.Reason, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// Classify decides how a normalized frame is aggregated.
func Classify(frame *models.Frame) (models.SourceKind, error) {
	if !frame.Has(models.ColStore) {
		return "", &SchemaError{
			Missing: []string{models.ColStore},
			Reason:  "store identifier column is required",
		}
	}
	switch {
	case frame.Has(models.ColHeadcount):
		return models.SourcePreAggregated, nil
	case frame.Has(models.ColEmployee):
		return models.SourceRaw, nil
	default:
		return "", &SchemaError{
			Missing: []string{models.ColEmployee, models.ColHeadcount},
			Reason:  "need either an employee column or a precomputed headcount column",
		}
	}
}

// presentDimensions lists the group columns the frame actually carries.
func presentDimensions(frame *models.Frame) []string {
	dims := make([]string, 0, len(models.GroupColumns))
	for _, col := range models.GroupColumns {
		if frame.Has(col) {
			dims = append(dims, col)
		}
	}
	return dims
}
