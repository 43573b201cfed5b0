// draft.go: transient pod assignment drafts, persisted only on commit.
package ingest

import (
	"maps"

	"github.com/pitchpod/pitchpod-go/internal/datastore"
)

// OverrideDraft accumulates in-progress pod swaps and disables for a
// session. Nothing touches the persisted override table until Commit; an
// abandoned draft simply goes out of scope.
type OverrideDraft struct {
	sessionID string
	changes   map[string]*string
}

// NewOverrideDraft starts a draft seeded with the session's current
// overrides, so committing an untouched draft is a no-op rewrite.
func NewOverrideDraft(sessionID string, current map[string]*string) *OverrideDraft {
	changes := make(map[string]*string, len(current))
	maps.Copy(changes, current)
	return &OverrideDraft{
		sessionID: sessionID,
		changes:   changes,
	}
}

// Swap points a pod at a different player for this session.
func (d *OverrideDraft) Swap(podSerial, playerID string) *OverrideDraft {
	id := playerID
	d.changes[podSerial] = &id
	return d
}

// Disable excludes a pod from this session entirely. The disable is stored
// as an explicit NULL mapping, distinct from having no override at all.
func (d *OverrideDraft) Disable(podSerial string) *OverrideDraft {
	d.changes[podSerial] = nil
	return d
}

// Clear removes any draft override for a pod, restoring its default
// mapping.
func (d *OverrideDraft) Clear(podSerial string) *OverrideDraft {
	delete(d.changes, podSerial)
	return d
}

// Overrides returns a copy of the draft's current override map.
func (d *OverrideDraft) Overrides() map[string]*string {
	out := make(map[string]*string, len(d.changes))
	maps.Copy(out, d.changes)
	return out
}

// Commit persists the draft as the session's override set, replacing the
// previous set.
func (d *OverrideDraft) Commit(store datastore.Interface) error {
	return store.SavePodOverrides(d.sessionID, d.changes)
}
