package transform

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// null marks a missing cell in test tables.
const null = "\x00null"

func frameOf(t *testing.T, columns []string, rows ...[]string) *models.Frame {
	t.Helper()
	f := models.NewFrame(columns)
	for _, row := range rows {
		cells := make([]sql.NullString, len(row))
		for i, v := range row {
			if v != null {
				cells[i] = sql.NullString{String: v, Valid: true}
			}
		}
		require.NoError(t, f.AppendRow(cells))
	}
	return f
}

func str(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func num(f float64) sql.NullFloat64 { return sql.NullFloat64{Float64: f, Valid: true} }

func stores(records []models.CanonicalRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Store.String)
	}
	return out
}
