// Package datastore logging infrastructure for database operations
package datastore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pitchpod/pitchpod-go/internal/errors"
	"github.com/pitchpod/pitchpod-go/internal/logging"
	"github.com/pitchpod/pitchpod-go/internal/observability/metrics"
)

// Package-level logger for datastore operations
var (
	datastoreLogger   *slog.Logger
	datastoreLevelVar = new(slog.LevelVar) // Dynamic level control
	loggerCloseFunc   func() error
	loggerOnce        sync.Once
	loggerMu          sync.RWMutex

	// defaultLogPath follows the project-wide convention of a "logs/"
	// directory for all per-service log files.
	defaultLogPath = "logs/datastore.log"
)

// InitializeLogger initializes the datastore logger with the specified log
// file path. Safe to call multiple times; initialization happens only once.
func InitializeLogger(logFilePath string) error {
	var initErr error

	loggerOnce.Do(func() {
		if logFilePath == "" {
			logFilePath = defaultLogPath
		}

		datastoreLevelVar.Set(slog.LevelInfo)

		var err error
		datastoreLogger, loggerCloseFunc, err = logging.NewFileLogger(logFilePath, "datastore", datastoreLevelVar)
		if err != nil {
			// Fall back to a no-op logger instead of failing
			datastoreLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
			loggerCloseFunc = func() error { return nil }

			initErr = errors.Newf("datastore: failed to initialize file logger: %v", err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("log_file", logFilePath).
				Build()
		}
	})

	return initErr
}

// getLogger returns the logger, initializing it with the default path if
// needed.
func getLogger() *slog.Logger {
	loggerMu.RLock()
	if datastoreLogger != nil {
		defer loggerMu.RUnlock()
		return datastoreLogger
	}
	loggerMu.RUnlock()

	_ = InitializeLogger(defaultLogPath)

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return datastoreLogger
}

// CloseLogger closes the datastore logger
func CloseLogger() error {
	if loggerCloseFunc != nil {
		return loggerCloseFunc()
	}
	return nil
}

// SetLogLevel sets the log level for the datastore logger
func SetLogLevel(level slog.Level) {
	datastoreLevelVar.Set(level)
}

// GormLogger implements GORM's logger interface with structured logging and
// optional metrics.
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormlogger.LogLevel
	metrics       *metrics.DatastoreMetrics
}

// NewGormLogger creates a new GORM logger instance
func NewGormLogger(slowThreshold time.Duration, logLevel gormlogger.LogLevel, m *metrics.DatastoreMetrics) *GormLogger {
	return &GormLogger{
		SlowThreshold: slowThreshold,
		LogLevel:      logLevel,
		metrics:       m,
	}
}

// LogMode implements logger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

// Info implements logger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Info {
		getLogger().InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Warn implements logger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Warn {
		getLogger().WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Error implements logger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Error {
		getLogger().ErrorContext(ctx, "GORM error",
			"msg", fmt.Sprintf(msg, data...))
	}
}

// Trace implements logger.Interface
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.LogLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		getLogger().ErrorContext(ctx, "Database query failed",
			"error", err,
			"sql", sql,
			"duration", elapsed,
			"rows_affected", rows)

	case elapsed > l.SlowThreshold && l.SlowThreshold != 0:
		getLogger().WarnContext(ctx, "Slow query detected",
			"sql", sql,
			"duration", elapsed,
			"rows_affected", rows,
			"threshold", l.SlowThreshold)

	case l.LogLevel >= gormlogger.Info:
		getLogger().DebugContext(ctx, "Query executed",
			"sql", sql,
			"duration", elapsed,
			"rows_affected", rows)
	}
}
