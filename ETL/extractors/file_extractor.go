package extractors

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
	"github.com/LilVoxy/obeya_headcount/ETL/utils"
)

// maxXLSRows bounds how many rows are read from a legacy .xls workbook.
const maxXLSRows = 1_000_000

// FileExtractor reads the flat headcount export. The format follows the
// file extension: .xlsx and .xls workbooks (first sheet), anything else is CSV.
type FileExtractor struct {
	path   string
	logger *utils.ETLLogger
}

// NewFileExtractor creates a FileExtractor for path
func NewFileExtractor(path string, logger *utils.ETLLogger) *FileExtractor {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &FileExtractor{path: path, logger: logger}
}

// Name identifies the source in logs
func (e *FileExtractor) Name() string {
	return "file:" + e.path
}

// Extract reads the whole file into a frame
func (e *FileExtractor) Extract(ctx context.Context) (*models.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(e.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("headcount export not found at %s: %w", e.path, err)
		}
		return nil, fmt.Errorf("opening headcount export: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(e.path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(f)
	case ".xls":
		return ReadXLS(f)
	default:
		return ReadCSV(f)
	}
}

// ReadCSV parses a comma separated export with a header row
func ReadCSV(r io.Reader) (*models.Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv export is empty")
		}
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		rows = append(rows, record)
	}
	return frameFromRows(header, rows)
}

// ReadXLSX parses the first worksheet of an .xlsx workbook
func ReadXLSX(r io.Reader) (*models.Frame, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("reading worksheet %q: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet %q is empty", sheetName)
	}
	return frameFromRows(rows[0], rows[1:])
}

// ReadXLS parses the first worksheet of a legacy .xls workbook
func ReadXLS(r io.ReadSeeker) (*models.Frame, error) {
	workbook, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening xls workbook: %w", err)
	}
	if workbook.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}
	rows := workbook.ReadAllCells(maxXLSRows)
	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}
	return frameFromRows(rows[0], rows[1:])
}
