// resolver.go: determines the player of record for each candidate reading.
package ingest

// DropReason explains why the resolver refused a row. Reasons are absorbed
// into hooks and metrics, never surfaced as call failures.
type DropReason string

const (
	DropNone           DropReason = ""
	DropBadTimestamp   DropReason = "bad_timestamp"
	DropDisabledPod    DropReason = "disabled_pod"
	DropUnassignedPod  DropReason = "unassigned_pod"
	DropInactivePlayer DropReason = "inactive_player"
)

// Resolver maps pod serials to players for one session. Resolution
// precedence is exact and must stay that way: explicit disable beats
// explicit override beats default mapping, and the roster filter applies
// last even to successfully resolved pods.
type Resolver struct {
	activePlayers map[string]struct{}
	defaults      map[string]string  // pod serial -> player id from Player.DefaultPodSerial
	overrides     map[string]*string // pod serial -> player id, nil = disabled
}

// NewResolver builds a resolver from the session's roster inputs. The
// overrides map is tri-state: an absent key means "use the default", a nil
// value means "pod disabled". Callers must not collapse the two.
func NewResolver(activePlayerIDs []string, defaults map[string]string, overrides map[string]*string) *Resolver {
	active := make(map[string]struct{}, len(activePlayerIDs))
	for _, id := range activePlayerIDs {
		active[id] = struct{}{}
	}
	if defaults == nil {
		defaults = map[string]string{}
	}
	if overrides == nil {
		overrides = map[string]*string{}
	}
	return &Resolver{
		activePlayers: active,
		defaults:      defaults,
		overrides:     overrides,
	}
}

// Resolve determines the player of record for a row. When the row cannot be
// attributed, the returned reason says why and the player id is empty.
func (r *Resolver) Resolve(row *Row) (playerID string, reason DropReason) {
	effective := row.PlayerID

	if row.PodSerial != "" {
		override, hasOverride := r.overrides[row.PodSerial]
		switch {
		case hasOverride && override == nil:
			// Pod explicitly disabled for this session. This wins over
			// everything, including a valid default mapping.
			return "", DropDisabledPod
		case hasOverride:
			effective = *override
		default:
			if mapped, ok := r.defaults[row.PodSerial]; ok {
				effective = mapped
			} else if effective == "" {
				return "", DropUnassignedPod
			}
		}
	}

	if effective == "" {
		return "", DropUnassignedPod
	}
	if _, active := r.activePlayers[effective]; !active {
		return "", DropInactivePlayer
	}
	return effective, DropNone
}

// ActiveCount returns the number of players on the session's active roster.
func (r *Resolver) ActiveCount() int {
	return len(r.activePlayers)
}
