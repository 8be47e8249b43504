package utils

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ETLLogger is the logger shared by every ETL phase
type ETLLogger struct {
	sugar     *zap.SugaredLogger
	isVerbose bool
}

// LoggerOptions configures NewETLLogger
type LoggerOptions struct {
	// Mode is "prod" for JSON output, anything else for the console encoder
	Mode string
	// Verbose enables Debug messages
	Verbose bool
	// LogDir, when set, also writes to etl_log_YYYY-MM-DD.log in that directory
	LogDir string
}

// NewETLLogger creates a zap-backed logger
func NewETLLogger(opts LoggerOptions) (*ETLLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(opts.Mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}

	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if opts.LogDir != "" {
		logFileName := fmt.Sprintf("%s/etl_log_%s.log", strings.TrimRight(opts.LogDir, "/"), time.Now().Format("2006-01-02"))
		cfg.OutputPaths = append(cfg.OutputPaths, logFileName)
	}

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	return &ETLLogger{sugar: logger.Sugar(), isVerbose: opts.Verbose}, nil
}

// NewNopLogger returns a logger that discards everything. Used in tests.
func NewNopLogger() *ETLLogger {
	return &ETLLogger{sugar: zap.NewNop().Sugar()}
}

// FromZap wraps an existing zap logger
func FromZap(logger *zap.Logger, verbose bool) *ETLLogger {
	return &ETLLogger{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar(), isVerbose: verbose}
}

// With returns a child logger carrying the given key/value pairs
func (l *ETLLogger) With(keysAndValues ...interface{}) *ETLLogger {
	return &ETLLogger{sugar: l.sugar.With(keysAndValues...), isVerbose: l.isVerbose}
}

// Info logs an informational message
func (l *ETLLogger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warn logs a recoverable problem
func (l *ETLLogger) Warn(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error logs an error message
func (l *ETLLogger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Debug logs a debug message (only in verbose mode)
func (l *ETLLogger) Debug(format string, v ...interface{}) {
	if !l.isVerbose {
		return
	}
	l.sugar.Debugf(format, v...)
}

// Sync flushes buffered entries
func (l *ETLLogger) Sync() {
	_ = l.sugar.Sync()
}

// LogExtractStart logs the start of the extract phase
func (l *ETLLogger) LogExtractStart(source string) {
	l.Info("Extract phase started (source: %s)", source)
}

// LogExtractComplete logs the end of the extract phase
func (l *ETLLogger) LogExtractComplete(rows int, columns int, duration time.Duration) {
	l.Info("Extract phase finished in %v: %d rows, %d columns", duration, rows, columns)
}

// LogTransformComplete logs the end of a transform for one period
func (l *ETLLogger) LogTransformComplete(month string, year int, records int, rejected int, duration time.Duration) {
	l.Info("Transform %s %d finished in %v: %d records, %d rejections", month, year, duration, records, rejected)
}
