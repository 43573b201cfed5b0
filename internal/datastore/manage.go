// manage.go: schema migration and GORM logger wiring.
package datastore

import (
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pitchpod/pitchpod-go/internal/errors"
)

// DefaultSlowQueryThreshold defines the duration after which a query is
// considered slow. Import batches keep single statements small, so anything
// over a second points at a real problem.
const DefaultSlowQueryThreshold = 1 * time.Second

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() gormlogger.Interface {
	return NewGormLogger(DefaultSlowQueryThreshold, gormlogger.Warn, nil)
}

// performAutoMigration migrates the schema for every table this core owns
// or mirrors. The calculated_data table is written by the metrics component
// but migrated here so both sides agree on the schema, including the synced
// flag used by outbound sync bookkeeping.
func performAutoMigration(db *gorm.DB, debug bool, dbPath string) error {
	if err := db.AutoMigrate(
		&Session{},
		&RawReading{},
		&Player{},
		&SessionPlayer{},
		&SessionPodOverride{},
		&Exercise{},
		&ExercisePlayer{},
		&CalculatedMetric{},
	); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", dbPath).
			Context("operation", "auto_migration").
			Build()
	}

	if debug {
		getLogger().Debug("database schema ready", "path", dbPath)
	}
	return nil
}
