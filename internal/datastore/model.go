// model.go: this code defines the data model for the application
package datastore

import "time"

// Session represents one match or training event, the unit of import and
// export and the scoping key for readings, assignments and overrides.
type Session struct {
	SessionID   string `gorm:"primaryKey"`
	EventName   string `gorm:"not null"`
	EventType   string `gorm:"type:varchar(16);not null"` // "match" or "training"
	EventDate   string `gorm:"not null"`                  // ISO 8601 date
	Location    string
	Field       string
	Notes       string
	TrimStartTS int64 // absolute ms, 0 when no trim window has been chosen
	TrimEndTS   int64 // absolute ms, 0 when no trim window has been chosen
	CreatedAt   time.Time
}

// Event type values for Session.EventType.
const (
	EventTypeMatch    = "match"
	EventTypeTraining = "training"
)

// RawReading is a single telemetry data point attributed to a player. The
// full set for a session is replaced on every import, never partially
// updated.
type RawReading struct {
	ID          uint   `gorm:"primaryKey"`
	SessionID   string `gorm:"index:idx_raw_data_session;not null"`
	PlayerID    string `gorm:"index:idx_raw_data_player;not null"`
	TimestampMs int64  `gorm:"index:idx_raw_data_ts;not null;check:timestamp_ms >= 0"`
	AccX        float64
	AccY        float64
	AccZ        float64
	QuatW       float64
	QuatX       float64
	QuatY       float64
	QuatZ       float64
	Lat         float64
	Lon         float64
	Heartrate   int
}

// TableName keeps the table name the podholder firmware and the metrics
// component expect.
func (RawReading) TableName() string {
	return "raw_data"
}

// Player is a roster member. Players are owned by the roster subsystem and
// read-only input to import and export.
type Player struct {
	PlayerID         string `gorm:"primaryKey"`
	PlayerName       string `gorm:"not null"`
	JerseyNumber     int
	Position         string
	DefaultPodSerial string `gorm:"index:idx_players_pod"`
	PodHolderSerial  string
}

// SessionPlayer declares whether a roster player participates in a given
// session. The set for a session is replaced on save.
type SessionPlayer struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"index:idx_session_players_session;not null"`
	PlayerID  string `gorm:"not null"`
	Assigned  bool
}

// SessionPodOverride remaps a pod to a different player for one session, or
// disables it. The mapping is tri-state: no row means "use the default
// mapping", a row with a NULL player means "pod disabled", a row with a
// player means "remapped". Absent and NULL must never be collapsed; doing so
// would silently re-enable disabled pods.
type SessionPodOverride struct {
	ID        uint    `gorm:"primaryKey"`
	SessionID string  `gorm:"index:idx_pod_overrides_session;not null"`
	PodSerial string  `gorm:"not null"`
	PlayerID  *string // nil = pod disabled for this session
}

// Exercise is a segment of a session, owned by the planning subsystem and
// read by the exporter.
type Exercise struct {
	ExerciseID uint   `gorm:"primaryKey"`
	SessionID  string `gorm:"index:idx_exercises_session;not null"`
	Type       string
	StartTS    int64
	EndTS      int64
	Players    []ExercisePlayer `gorm:"foreignKey:ExerciseID;constraint:OnDelete:CASCADE"`
}

// ExercisePlayer links a player to an exercise segment.
type ExercisePlayer struct {
	ID         uint   `gorm:"primaryKey"`
	ExerciseID uint   `gorm:"index;not null"`
	PlayerID   string `gorm:"not null"`
}

// CalculatedMetric holds derived athletic metrics per player and session.
// The metrics component writes these rows; this core only migrates the
// schema and leaves the data alone.
type CalculatedMetric struct {
	ID            uint   `gorm:"primaryKey"`
	SessionID     string `gorm:"index:idx_calculated_session"`
	PlayerID      string `gorm:"index:idx_calculated_player"`
	TotalDistance float64
	HsrDistance   float64
	SprintDist    float64
	TopSpeed      float64
	SprintCount   int
	Accelerations int
	Decelerations int
	MaxAccel      float64
	MaxDecel      float64
	PlayerLoad    float64
	PowerScore    float64
	HrMax         int
	TimeInRedZone float64
	PctInRedZone  float64
	HrRecoveryAt  float64
	Synced        bool `gorm:"default:false"`
	CreatedAt     time.Time
}

// TableName keeps the legacy table name used by the metrics component.
func (CalculatedMetric) TableName() string {
	return "calculated_data"
}

// AssignedPlayer is the roster view for one session: the player row joined
// with its assignment flag and the effective pod after overrides.
type AssignedPlayer struct {
	Player
	Assigned           bool
	EffectivePodSerial string // empty when the pod is disabled or unmapped
	Swapped            bool   // true when the effective pod differs from the default
	PodDisabled        bool   // true when an override disables the player's pod
}
