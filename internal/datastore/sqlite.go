package datastore

import (
	"fmt"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pitchpod/pitchpod-go/internal/conf"
	"github.com/pitchpod/pitchpod-go/internal/errors"
)

// SQLiteStore implements Interface for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

func validateSQLiteConfig(settings *conf.Settings) error {
	if settings.Output.SQLite.Path == "" {
		return errors.Newf("sqlite database path is empty").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// Open sets up the SQLite database connection and migrates the schema.
func (store *SQLiteStore) Open() error {
	if err := validateSQLiteConfig(store.Settings); err != nil {
		return err
	}

	dir, fileName := filepath.Split(store.Settings.Output.SQLite.Path)
	basePath := conf.GetBasePath(dir)
	absoluteFilePath := filepath.Join(basePath, fileName)

	// Enforce foreign keys; sqlite has them off by default.
	dsn := absoluteFilePath + "?_foreign_keys=on"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return errors.New(fmt.Errorf("failed to open SQLite database: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", absoluteFilePath).
			Build()
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, absoluteFilePath)
}

// Close closes the underlying sqlite database handle.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
