package extractors

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
	"github.com/LilVoxy/obeya_headcount/ETL/utils"
)

// rawQuery returns one row per active employee assignment joined to the store
// location table. Column names are the legacy ones ("logitud", "ano").
const rawQuery = `
	SELECT DISTINCT
		m.almacen, m.nom_oficio, m.ccosto,
		l.gestor, l.tipo_tienda, l.zona, l.logitud, l.latitud,
		m.mes, m.ano, m.empleado
	FROM maestro m
	LEFT JOIN Localizacion l ON l.ccosto = m.ccosto
`

// aggregateQuery returns the headcount per store and period directly.
const aggregateQuery = `
	SELECT
		m.almacen, m.nom_oficio, m.ccosto,
		l.gestor, l.tipo_tienda, l.zona, l.logitud, l.latitud,
		m.mes, m.ano,
		COUNT(DISTINCT m.empleado) AS total_activos
	FROM maestro m
	LEFT JOIN Localizacion l ON l.ccosto = m.ccosto
	GROUP BY
		m.almacen, m.nom_oficio, m.ccosto,
		l.gestor, l.tipo_tienda, l.zona, l.logitud, l.latitud,
		m.mes, m.ano
`

// SQLExtractor loads the headcount dataset from the HR database
type SQLExtractor struct {
	db        *sql.DB
	logger    *utils.ETLLogger
	aggregate bool
}

// NewSQLExtractor creates a SQLExtractor. With aggregate set the database
// computes the distinct employee counts and the source is pre-aggregated.
func NewSQLExtractor(db *sql.DB, aggregate bool, logger *utils.ETLLogger) *SQLExtractor {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &SQLExtractor{db: db, logger: logger, aggregate: aggregate}
}

// Name identifies the source in logs
func (e *SQLExtractor) Name() string {
	if e.aggregate {
		return "mysql:aggregated"
	}
	return "mysql:raw"
}

// Extract runs the query and returns every row as a frame
func (e *SQLExtractor) Extract(ctx context.Context) (*models.Frame, error) {
	query := rawQuery
	if e.aggregate {
		query = aggregateQuery
	}

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		e.logger.Error("Headcount query failed: %v", err)
		return nil, fmt.Errorf("querying headcount: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading result columns: %w", err)
	}
	for i, c := range columns {
		columns[i] = NormalizeHeader(c)
	}

	frame := models.NewFrame(columns)
	if len(frame.Columns()) != len(columns) {
		return nil, fmt.Errorf("headcount query returned duplicate column names: %v", columns)
	}

	cells := make([]sql.NullString, len(columns))
	dest := make([]interface{}, len(columns))
	for i := range cells {
		dest[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			e.logger.Error("Scanning headcount row: %v", err)
			return nil, fmt.Errorf("scanning headcount row: %w", err)
		}
		row := make([]sql.NullString, len(cells))
		copy(row, cells)
		if err := frame.AppendRow(row); err != nil {
			return nil, err
		}
	}

	if err := rows.Err(); err != nil {
		e.logger.Error("Iterating headcount rows: %v", err)
		return nil, fmt.Errorf("iterating headcount rows: %w", err)
	}

	e.logger.Debug("Fetched %d rows from %s", frame.Len(), e.Name())
	return frame, nil
}
