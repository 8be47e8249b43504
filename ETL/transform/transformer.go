package transform

import (
	"fmt"
	"time"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
	"github.com/LilVoxy/obeya_headcount/ETL/utils"
)

// RejectionObserver receives the rejections of every ingest and transform.
type RejectionObserver interface {
	ObserveRejections(rejections []models.Rejection)
}

// Transformer runs the headcount pipeline over an ingested source.
type Transformer struct {
	normalizer *Normalizer
	logger     *utils.ETLLogger
	observer   RejectionObserver
}

// NewTransformer creates a Transformer. A nil normalizer uses the default aliases.
func NewTransformer(normalizer *Normalizer, logger *utils.ETLLogger) *Transformer {
	if normalizer == nil {
		normalizer = NewNormalizer(nil)
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Transformer{normalizer: normalizer, logger: logger}
}

// WithObserver sets the rejection observer and returns the transformer.
func (t *Transformer) WithObserver(o RejectionObserver) *Transformer {
	t.observer = o
	return t
}

// Ingest normalizes, classifies and coerces a freshly extracted frame.
// The returned Source is immutable and can be transformed any number of times.
func (t *Transformer) Ingest(frame *models.Frame) (*models.Source, error) {
	if frame == nil {
		return nil, fmt.Errorf("ingest: nil frame")
	}
	startTime := time.Now()

	normalized := t.normalizer.Normalize(frame)
	kind, err := Classify(normalized)
	if err != nil {
		t.logger.Error("Source rejected: %v", err)
		return nil, err
	}

	records, rejections := Coerce(normalized, kind)
	t.observe(rejections)

	source := &models.Source{
		Kind:       kind,
		Dimensions: presentDimensions(normalized),
		Records:    records,
		Rejections: rejections,
		RowsRead:   normalized.Len(),
	}
	t.logger.Info("Ingested %d rows as %s source (%d kept, %d rejected) in %v",
		source.RowsRead, kind, len(records), len(rejections), time.Since(startTime))
	return source, nil
}

// Transform derives the canonical table for one period. A period without
// rows is not an error: the result is simply Empty.
func (t *Transformer) Transform(source *models.Source, month string, year int) (*models.Result, error) {
	if source == nil {
		return nil, fmt.Errorf("transform: no source loaded")
	}
	startTime := time.Now()
	month = NormalizeText(month)

	filtered := FilterPeriod(source.Records, month, year)

	var records []models.CanonicalRecord
	switch source.Kind {
	case models.SourceRaw:
		records = AggregateRaw(filtered)
	case models.SourcePreAggregated:
		records = PassThrough(filtered)
	default:
		return nil, fmt.Errorf("transform: unknown source kind %q", source.Kind)
	}

	rejections := LabelPeriods(records)
	located, dropped := FilterLocated(records)
	rejections = append(rejections, dropped...)
	t.observe(rejections)

	result := &models.Result{
		Period:     models.Period{Month: month, Year: year},
		Kind:       source.Kind,
		Records:    records,
		Located:    located,
		Rejections: rejections,
	}

	if result.Empty() {
		t.logger.Warn("No data for period %s %d", month, year)
	}
	t.logger.LogTransformComplete(month, year, len(records), len(rejections), time.Since(startTime))
	return result, nil
}

func (t *Transformer) observe(rejections []models.Rejection) {
	if t.observer != nil && len(rejections) > 0 {
		t.observer.ObserveRejections(rejections)
	}
}
