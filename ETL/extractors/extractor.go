package extractors

import (
	"context"
	"fmt"
	"time"

	"github.com/LilVoxy/obeya_headcount/ETL/config"
	"github.com/LilVoxy/obeya_headcount/ETL/models"
	"github.com/LilVoxy/obeya_headcount/ETL/utils"
)

// FrameSource produces the raw headcount table
type FrameSource interface {
	Name() string
	Extract(ctx context.Context) (*models.Frame, error)
}

// Extractor coordinates the extract phase over the configured source
type Extractor struct {
	source FrameSource
	logger *utils.ETLLogger
}

// NewExtractor creates an Extractor around a source
func NewExtractor(source FrameSource, logger *utils.ETLLogger) *Extractor {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Extractor{source: source, logger: logger}
}

// NewSource picks the source described by the configuration
func NewSource(cfg config.ETLConfig, connections *config.DBConnections, logger *utils.ETLLogger) (FrameSource, error) {
	switch cfg.SourceMode {
	case config.SourceCSV:
		return NewFileExtractor(cfg.CSVPath, logger), nil
	case config.SourceMySQL:
		if connections == nil || connections.SourceDB == nil {
			return nil, fmt.Errorf("source database is not connected")
		}
		return NewSQLExtractor(connections.SourceDB, cfg.SourceSQLAggregate, logger), nil
	default:
		return nil, fmt.Errorf("unknown source mode %q", cfg.SourceMode)
	}
}

// Extract loads the full raw dataset
func (e *Extractor) Extract(ctx context.Context) (*models.Frame, error) {
	startTime := time.Now()
	e.logger.LogExtractStart(e.source.Name())

	frame, err := e.source.Extract(ctx)
	if err != nil {
		e.logger.Error("Extract from %s failed: %v", e.source.Name(), err)
		return nil, fmt.Errorf("extracting from %s: %w", e.source.Name(), err)
	}

	e.logger.LogExtractComplete(frame.Len(), len(frame.Columns()), time.Since(startTime))
	return frame, nil
}
