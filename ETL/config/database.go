package config

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/LilVoxy/obeya_headcount/ETL/utils"
)

// DBConnections holds the database handles. Either may be nil when not configured.
type DBConnections struct {
	SourceDB    *sql.DB
	AnalyticsDB *sql.DB
}

// Open opens and pings one database
func Open(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening %s database %q: %w", cfg.Driver, cfg.DBName, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database %q: %w", cfg.DBName, err)
	}
	return db, nil
}

// ConnectDatabases opens the source and analytics databases that are configured
func ConnectDatabases(config ETLConfig, logger *utils.ETLLogger) (*DBConnections, error) {
	var connections DBConnections
	var err error

	if config.SourceMode == SourceMySQL {
		connections.SourceDB, err = Open(config.SourceDB)
		if err != nil {
			return nil, fmt.Errorf("source database: %w", err)
		}
	}

	if config.AnalyticsDB.Configured() {
		connections.AnalyticsDB, err = Open(config.AnalyticsDB)
		if err != nil {
			CloseDatabases(&connections, logger)
			return nil, fmt.Errorf("analytics database: %w", err)
		}
	}

	logger.Info("Databases connected (source: %t, analytics: %t)",
		connections.SourceDB != nil, connections.AnalyticsDB != nil)
	return &connections, nil
}

// CloseDatabases closes every open handle
func CloseDatabases(connections *DBConnections, logger *utils.ETLLogger) {
	if connections == nil {
		return
	}
	if connections.SourceDB != nil {
		if err := connections.SourceDB.Close(); err != nil {
			logger.Error("Closing source database: %v", err)
		}
	}
	if connections.AnalyticsDB != nil {
		if err := connections.AnalyticsDB.Close(); err != nil {
			logger.Error("Closing analytics database: %v", err)
		}
	}
}
