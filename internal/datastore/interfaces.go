// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/pitchpod/pitchpod-go/internal/conf"
	"github.com/pitchpod/pitchpod-go/internal/errors"
	"github.com/pitchpod/pitchpod-go/internal/observability/metrics"
)

// ErrSessionNotFound is returned when a session id does not exist in the
// store. Matching is by error category, so errors.Is works on any wrapped
// not-found error from this package.
var ErrSessionNotFound = errors.Newf("session not found").
	Component("datastore").
	Category(errors.CategoryNotFound).
	Build()

// Interface abstracts the underlying database implementation and defines
// the operations the import and export pipelines need.
type Interface interface {
	Open() error
	Close() error

	// Session metadata
	GetSession(sessionID string) (Session, error)
	SessionExists(sessionID string) (bool, error)
	SetTrimWindow(sessionID string, startTS, endTS int64) error

	// Atomic replace-snapshot import. See ReplaceSessionData.
	ReplaceSessionData(ctx context.Context, session *Session, sessionID string, readings []RawReading) (int, error)

	// Readings
	GetRawReadings(sessionID string) ([]RawReading, error)
	CountRawReadings(sessionID string) (int64, error)

	// Roster inputs
	SavePlayers(players []Player) error
	ListPlayers() ([]Player, error)
	GetAssignedPlayers(sessionID string) ([]AssignedPlayer, error)
	SaveSessionPlayers(sessionID string, assigned map[string]bool) error
	GetPodOverrides(sessionID string) (map[string]*string, error)
	SavePodOverrides(sessionID string, overrides map[string]*string) error

	// Exercise segments, read by the exporter
	GetExercises(sessionID string) ([]Exercise, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB      *gorm.DB // GORM database instance
	metrics *metrics.DatastoreMetrics
}

// New creates a new datastore instance based on the provided configuration.
// Returns nil if no store is enabled.
func New(settings *conf.Settings) Interface {
	if settings.Output.SQLite.Enabled {
		return &SQLiteStore{
			Settings: settings,
		}
	}
	return nil
}

// SetMetrics attaches datastore metrics. Safe to leave unset; all recording
// is conditional.
func (ds *DataStore) SetMetrics(m *metrics.DatastoreMetrics) {
	ds.metrics = m
}

func (ds *DataStore) recordOperation(operation string, start time.Time, err error) {
	if ds.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	ds.metrics.RecordOperation(operation, status, time.Since(start))
}

// GetSession retrieves a session by its id.
func (ds *DataStore) GetSession(sessionID string) (session Session, err error) {
	defer func(start time.Time) { ds.recordOperation("get_session", start, err) }(time.Now())

	if err = ds.DB.First(&session, "session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = errors.Newf("session %s not found", sessionID).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Context("session_id", sessionID).
				Build()
			return Session{}, err
		}
		err = errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session_id", sessionID).
			Context("operation", "get_session").
			Build()
		return Session{}, err
	}
	return session, nil
}

// SessionExists reports whether a session row exists for the id.
func (ds *DataStore) SessionExists(sessionID string) (bool, error) {
	var count int64
	if err := ds.DB.Model(&Session{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return false, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session_id", sessionID).
			Context("operation", "session_exists").
			Build()
	}
	return count > 0, nil
}

// SetTrimWindow stores the chosen absolute trim bounds on the session row.
// The trim screen commits these before the final re-import runs.
func (ds *DataStore) SetTrimWindow(sessionID string, startTS, endTS int64) (err error) {
	defer func(start time.Time) { ds.recordOperation("set_trim_window", start, err) }(time.Now())

	result := ds.DB.Model(&Session{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{"trim_start_ts": startTS, "trim_end_ts": endTS})
	if result.Error != nil {
		err = errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session_id", sessionID).
			Context("operation", "set_trim_window").
			Build()
		return err
	}
	if result.RowsAffected == 0 {
		err = errors.Newf("session %s not found", sessionID).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Context("session_id", sessionID).
			Build()
		return err
	}
	return nil
}

// ReplaceSessionData executes the whole import write phase as one
// transaction: upsert the session row when a draft is supplied, delete all
// prior readings for the session, insert the new readings in arrival order,
// commit. Any failure rolls the transaction back, leaving the store exactly
// as it was before the call. Returns the number of readings inserted.
//
// There is no cancellation once the transaction has begun; ctx is consulted
// only before the first write.
func (ds *DataStore) ReplaceSessionData(ctx context.Context, session *Session, sessionID string, readings []RawReading) (inserted int, err error) {
	defer func(start time.Time) { ds.recordOperation("replace_session_data", start, err) }(time.Now())

	if err = ctx.Err(); err != nil {
		return 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session_id", sessionID).
			Context("operation", "replace_session_data").
			Build()
	}

	tx := ds.DB.Begin()
	if tx.Error != nil {
		return 0, ds.txError(tx.Error, sessionID, "begin")
	}

	// Roll back the transaction if a panic occurs
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if session != nil {
		session.SessionID = sessionID
		if session.CreatedAt.IsZero() {
			session.CreatedAt = time.Now()
		}
		// INSERT OR REPLACE semantics on the session row
		if err = tx.Save(session).Error; err != nil {
			tx.Rollback()
			return 0, ds.txError(err, sessionID, "upsert_session")
		}
	}

	if err = tx.Where("session_id = ?", sessionID).Delete(&RawReading{}).Error; err != nil {
		tx.Rollback()
		return 0, ds.txError(err, sessionID, "delete_readings")
	}

	for i := range readings {
		readings[i].ID = 0
		readings[i].SessionID = sessionID
		if err = tx.Create(&readings[i]).Error; err != nil {
			tx.Rollback()
			return 0, ds.txError(err, sessionID, "insert_reading")
		}
	}

	if err = tx.Commit().Error; err != nil {
		return 0, ds.txError(err, sessionID, "commit")
	}

	if ds.metrics != nil {
		ds.metrics.RecordTransaction("committed")
	}
	return len(readings), nil
}

// txError wraps a transaction failure with the stage it happened at. A
// rollback is always followed by a reported failure; nothing is swallowed
// at the transaction boundary.
func (ds *DataStore) txError(err error, sessionID, stage string) error {
	if ds.metrics != nil {
		ds.metrics.RecordTransaction("rolled_back")
	}
	getLogger().Error("import transaction failed",
		"session_id", sessionID,
		"stage", stage,
		"error", err)
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("session_id", sessionID).
		Context("stage", stage).
		Build()
}

// GetRawReadings returns all readings for a session ordered by timestamp
// ascending.
func (ds *DataStore) GetRawReadings(sessionID string) (readings []RawReading, err error) {
	defer func(start time.Time) { ds.recordOperation("get_raw_readings", start, err) }(time.Now())

	if err = ds.DB.Where("session_id = ?", sessionID).
		Order("timestamp_ms ASC").
		Find(&readings).Error; err != nil {
		err = errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session_id", sessionID).
			Context("operation", "get_raw_readings").
			Build()
		return nil, err
	}
	return readings, nil
}

// CountRawReadings returns the number of stored readings for a session.
func (ds *DataStore) CountRawReadings(sessionID string) (int64, error) {
	var count int64
	if err := ds.DB.Model(&RawReading{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session_id", sessionID).
			Context("operation", "count_raw_readings").
			Build()
	}
	return count, nil
}

// GetExercises returns the exercise segments for a session ordered by start
// time, with their player lists preloaded.
func (ds *DataStore) GetExercises(sessionID string) (exercises []Exercise, err error) {
	defer func(start time.Time) { ds.recordOperation("get_exercises", start, err) }(time.Now())

	if err = ds.DB.Preload("Players").
		Where("session_id = ?", sessionID).
		Order("start_ts ASC").
		Find(&exercises).Error; err != nil {
		err = errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session_id", sessionID).
			Context("operation", "get_exercises").
			Build()
		return nil, err
	}
	return exercises, nil
}
