package load

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
	"github.com/LilVoxy/obeya_headcount/ETL/utils"
)

// SnapshotLoader persists the canonical table of one period to the analytics database
type SnapshotLoader struct {
	db     *sql.DB
	logger *utils.ETLLogger
}

// NewSnapshotLoader creates a new SnapshotLoader
func NewSnapshotLoader(db *sql.DB, logger *utils.ETLLogger) *SnapshotLoader {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &SnapshotLoader{
		db:     db,
		logger: logger,
	}
}

// EnsureTables creates the snapshot tables if they do not exist
func (l *SnapshotLoader) EnsureTables(ctx context.Context) error {
	queries := []string{`
	CREATE TABLE IF NOT EXISTS headcount_snapshot (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		run_id CHAR(36) NOT NULL,
		almacen VARCHAR(255) NULL,
		nom_oficio VARCHAR(255) NULL,
		ccosto VARCHAR(64) NULL,
		gestor VARCHAR(255) NULL,
		tipo_tienda VARCHAR(128) NULL,
		zona VARCHAR(128) NULL,
		longitud DOUBLE NULL,
		latitud DOUBLE NULL,
		mes VARCHAR(16) NOT NULL,
		anio INT NOT NULL,
		total_activos INT NOT NULL,
		fecha VARCHAR(16) NOT NULL,
		loaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_period (anio, mes)
	);`, `
	CREATE TABLE IF NOT EXISTS headcount_rejections (
		run_id CHAR(36) NOT NULL,
		mes VARCHAR(16) NOT NULL,
		anio INT NOT NULL,
		reason VARCHAR(32) NOT NULL,
		total INT NOT NULL,
		PRIMARY KEY (anio, mes, reason)
	);`,
	}

	for _, query := range queries {
		if _, err := l.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("creating snapshot tables: %w", err)
		}
	}
	return nil
}

// Load replaces the stored snapshot of result.Period in a single transaction.
// Returns the number of records written.
func (l *SnapshotLoader) Load(ctx context.Context, runID string, result *models.Result) (int, error) {
	if result == nil {
		return 0, fmt.Errorf("load: nil result")
	}

	startTime := time.Now()
	period := result.Period
	l.logger.Info("Loading snapshot for %s %d (records: %d)", period.Month, period.Year, len(result.Records))

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM headcount_snapshot WHERE anio = ? AND mes = ?", period.Year, period.Month); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("clearing snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO headcount_snapshot
		(run_id, almacen, nom_oficio, ccosto, gestor, tipo_tienda, zona,
		longitud, latitud, mes, anio, total_activos, fecha)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing snapshot insert: %w", err)
	}
	defer stmt.Close()

	processed := 0
	failures := 0
	for i, rec := range result.Records {
		_, err := stmt.ExecContext(ctx,
			runID,
			rec.Store,
			rec.JobTitle,
			rec.CostCenter,
			rec.Manager,
			rec.StoreType,
			rec.Zone,
			rec.Longitude,
			rec.Latitude,
			rec.Month,
			rec.Year,
			rec.TotalActive,
			rec.Period,
		)
		if err != nil {
			l.logger.Error("Inserting snapshot row %d: %v", i, err)
			failures++
			continue
		}

		processed++
		if processed%500 == 0 {
			l.logger.Debug("Loaded %d of %d records...", processed, len(result.Records))
		}
	}

	if failures > 0 {
		tx.Rollback()
		return 0, fmt.Errorf("%d errors while loading snapshot", failures)
	}

	if err := l.loadRejections(ctx, tx, runID, result); err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("committing snapshot: %w", err)
	}

	l.logger.Info("Snapshot loaded. Records: %d. Duration: %v", processed, time.Since(startTime))
	return processed, nil
}

func (l *SnapshotLoader) loadRejections(ctx context.Context, tx *sql.Tx, runID string, result *models.Result) error {
	period := result.Period
	if _, err := tx.ExecContext(ctx, "DELETE FROM headcount_rejections WHERE anio = ? AND mes = ?", period.Year, period.Month); err != nil {
		return fmt.Errorf("clearing rejection counts: %w", err)
	}

	counts := result.DroppedByReason()
	reasons := make([]models.RejectReason, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	slices.Sort(reasons)

	for _, reason := range reasons {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO headcount_rejections (run_id, mes, anio, reason, total) VALUES (?, ?, ?, ?, ?)",
			runID, period.Month, period.Year, string(reason), counts[reason],
		)
		if err != nil {
			return fmt.Errorf("storing rejection count %s: %w", reason, err)
		}
	}
	return nil
}
