// roster.go: roster, assignment and pod-override persistence.
package datastore

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pitchpod/pitchpod-go/internal/errors"
)

// SavePlayers upserts roster players by id. The roster subsystem owns the
// data; this is the local mirror the resolver reads.
func (ds *DataStore) SavePlayers(players []Player) (err error) {
	defer func(start time.Time) { ds.recordOperation("save_players", start, err) }(time.Now())

	if len(players) == 0 {
		return nil
	}
	if err = ds.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		UpdateAll: true,
	}).Create(&players).Error; err != nil {
		err = errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save_players").
			Build()
		return err
	}
	return nil
}

// ListPlayers returns all roster players ordered by jersey number.
func (ds *DataStore) ListPlayers() (players []Player, err error) {
	defer func(start time.Time) { ds.recordOperation("list_players", start, err) }(time.Now())

	if err = ds.DB.Order("jersey_number ASC").Find(&players).Error; err != nil {
		err = errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "list_players").
			Build()
		return nil, err
	}
	return players, nil
}

// SaveSessionPlayers replaces the assignment set for a session. The whole
// set is rewritten in one transaction so a failed save never leaves a mixed
// roster behind.
func (ds *DataStore) SaveSessionPlayers(sessionID string, assigned map[string]bool) (err error) {
	defer func(start time.Time) { ds.recordOperation("save_session_players", start, err) }(time.Now())

	err = ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&SessionPlayer{}).Error; err != nil {
			return err
		}
		for playerID, isAssigned := range assigned {
			sp := SessionPlayer{
				SessionID: sessionID,
				PlayerID:  playerID,
				Assigned:  isAssigned,
			}
			if err := tx.Create(&sp).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		err = errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session_id", sessionID).
			Context("operation", "save_session_players").
			Build()
		return err
	}
	return nil
}

// GetAssignedPlayers returns the roster for a session ordered by jersey
// number, each row enriched with the effective pod after applying the
// session's overrides: a swap points the player at another pod, a disable
// leaves them without one.
func (ds *DataStore) GetAssignedPlayers(sessionID string) (result []AssignedPlayer, err error) {
	defer func(start time.Time) { ds.recordOperation("get_assigned_players", start, err) }(time.Now())

	type joinedRow struct {
		Player
		Assigned bool
	}
	var rows []joinedRow
	if err = ds.DB.Model(&SessionPlayer{}).
		Select("players.*, session_players.assigned").
		Joins("JOIN players ON players.player_id = session_players.player_id").
		Where("session_players.session_id = ?", sessionID).
		Order("players.jersey_number ASC").
		Scan(&rows).Error; err != nil {
		err = errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session_id", sessionID).
			Context("operation", "get_assigned_players").
			Build()
		return nil, err
	}

	overrides, err := ds.GetPodOverrides(sessionID)
	if err != nil {
		return nil, err
	}

	// Invert the overrides: player -> pod for swaps, and the set of pods
	// explicitly disabled for this session.
	playerToPod := make(map[string]string, len(overrides))
	disabledPods := make(map[string]bool, len(overrides))
	for podSerial, playerID := range overrides {
		if playerID != nil {
			playerToPod[*playerID] = podSerial
		} else {
			disabledPods[podSerial] = true
		}
	}

	result = make([]AssignedPlayer, 0, len(rows))
	for i := range rows {
		ap := AssignedPlayer{
			Player:   rows[i].Player,
			Assigned: rows[i].Assigned,
		}
		switch {
		case playerToPod[ap.PlayerID] != "":
			ap.EffectivePodSerial = playerToPod[ap.PlayerID]
			ap.Swapped = ap.EffectivePodSerial != ap.DefaultPodSerial
		case disabledPods[ap.DefaultPodSerial]:
			ap.PodDisabled = true
		default:
			ap.EffectivePodSerial = ap.DefaultPodSerial
		}
		result = append(result, ap)
	}
	return result, nil
}

// GetPodOverrides returns the per-session override map. Key presence means
// an override row exists; a nil value means the pod is disabled for this
// session. Pods without a key fall back to their default mapping.
func (ds *DataStore) GetPodOverrides(sessionID string) (map[string]*string, error) {
	var rows []SessionPodOverride
	if err := ds.DB.Where("session_id = ?", sessionID).Find(&rows).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session_id", sessionID).
			Context("operation", "get_pod_overrides").
			Build()
	}

	overrides := make(map[string]*string, len(rows))
	for i := range rows {
		overrides[rows[i].PodSerial] = rows[i].PlayerID
	}
	return overrides, nil
}

// SavePodOverrides replaces the override set for a session. A nil map value
// persists as a NULL player id, keeping the disable state distinct from an
// absent override across re-imports.
func (ds *DataStore) SavePodOverrides(sessionID string, overrides map[string]*string) (err error) {
	defer func(start time.Time) { ds.recordOperation("save_pod_overrides", start, err) }(time.Now())

	err = ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&SessionPodOverride{}).Error; err != nil {
			return err
		}
		for podSerial, playerID := range overrides {
			row := SessionPodOverride{
				SessionID: sessionID,
				PodSerial: podSerial,
				PlayerID:  playerID,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		err = errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session_id", sessionID).
			Context("operation", "save_pod_overrides").
			Build()
		return err
	}
	return nil
}
