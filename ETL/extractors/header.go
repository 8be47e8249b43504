package extractors

import (
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// NormalizeHeader trims, lower-cases and NFC-normalizes a column name, so
// "Año" typed with a combining tilde matches the precomposed "año".
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(h)))
}

// frameFromRows builds a frame from a header row plus data rows.
// Short rows are padded with nulls, empty cells read as null.
func frameFromRows(header []string, rows [][]string) (*models.Frame, error) {
	names := make([]string, len(header))
	keep := make([]int, 0, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		names[i] = NormalizeHeader(h)
		if names[i] == "" || seen[names[i]] {
			continue
		}
		seen[names[i]] = true
		keep = append(keep, i)
	}

	columns := make([]string, len(keep))
	for j, i := range keep {
		columns[j] = names[i]
	}
	frame := models.NewFrame(columns)

	for r, row := range rows {
		if len(row) > len(header) && !blankTail(row[len(header):]) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", r+1, len(row), len(header))
		}
		cells := make([]sql.NullString, len(keep))
		for j, i := range keep {
			if i < len(row) && row[i] != "" {
				cells[j] = sql.NullString{String: row[i], Valid: true}
			}
		}
		if err := frame.AppendRow(cells); err != nil {
			return nil, fmt.Errorf("row %d: %w", r+1, err)
		}
	}
	return frame, nil
}

func blankTail(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
