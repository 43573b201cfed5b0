// writer.go: orchestrates the parse, filter, resolve and store pipeline for
// one capture file.
package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pitchpod/pitchpod-go/internal/datastore"
	"github.com/pitchpod/pitchpod-go/internal/errors"
	"github.com/pitchpod/pitchpod-go/internal/logging"
	"github.com/pitchpod/pitchpod-go/internal/observability/metrics"
)

// Pipeline stages reported on import failures.
const (
	StageParse       = "parse"
	StageRoster      = "roster"
	StageTransaction = "transaction"
)

// Package-level logger for import operations
var (
	ingestLogger *slog.Logger
	loggerOnce   sync.Once
)

func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		var err error
		ingestLogger, _, err = logging.NewFileLogger("logs/ingest.log", "ingest", slog.LevelInfo)
		if err != nil || ingestLogger == nil {
			ingestLogger = slog.Default().With("service", "ingest")
		}
	})
	return ingestLogger
}

// EventDraft carries session metadata captured on the event form. It is
// upserted onto the session row inside the import transaction.
type EventDraft struct {
	EventName string
	EventType string
	EventDate string
	Location  string
	Field     string
	Notes     string
}

func (d *EventDraft) toSession() *datastore.Session {
	return &datastore.Session{
		EventName: d.EventName,
		EventType: d.EventType,
		EventDate: d.EventDate,
		Location:  d.Location,
		Field:     d.Field,
		Notes:     d.Notes,
	}
}

// Hooks are structured-event callbacks observed during an import. All
// fields are optional.
type Hooks struct {
	RowDropped func(reason DropReason)
	Committed  func(sessionID string, inserted int)
}

func (h *Hooks) rowDropped(reason DropReason) {
	if h != nil && h.RowDropped != nil {
		h.RowDropped(reason)
	}
}

func (h *Hooks) committed(sessionID string, inserted int) {
	if h != nil && h.Committed != nil {
		h.Committed(sessionID, inserted)
	}
}

// importOptions collects the per-call import parameters.
type importOptions struct {
	trimStartMs int64
	trimEndMs   int64
	eventDraft  *EventDraft
	hooks       *Hooks
}

// ImportOption customizes a single ImportSession call.
type ImportOption func(*importOptions)

// WithTrimWindow sets the relative trim offsets applied to the capture's
// time origin.
func WithTrimWindow(trimStartMs, trimEndMs int64) ImportOption {
	return func(o *importOptions) {
		o.trimStartMs = trimStartMs
		o.trimEndMs = trimEndMs
	}
}

// WithEventDraft attaches session metadata to upsert during the import.
func WithEventDraft(draft *EventDraft) ImportOption {
	return func(o *importOptions) {
		o.eventDraft = draft
	}
}

// WithHooks attaches structured-event callbacks to the import.
func WithHooks(hooks *Hooks) ImportOption {
	return func(o *importOptions) {
		o.hooks = hooks
	}
}

// Importer runs capture imports against the local store. Imports for the
// same session are serialized: the delete-then-insert snapshot replacement
// is not safe to interleave.
type Importer struct {
	store   datastore.Interface
	metrics *metrics.IngestMetrics

	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

// NewImporter creates an importer over the given store. metrics may be nil.
func NewImporter(store datastore.Interface, m *metrics.IngestMetrics) *Importer {
	return &Importer{
		store:        store,
		metrics:      m,
		sessionLocks: make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the mutex serializing imports for one session id.
func (imp *Importer) sessionLock(sessionID string) *sync.Mutex {
	imp.mu.Lock()
	defer imp.mu.Unlock()
	lock, ok := imp.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		imp.sessionLocks[sessionID] = lock
	}
	return lock
}

// ImportSession ingests one capture file for a session and returns the
// number of readings inserted. The whole write phase runs as one atomic
// transaction; on any failure the store keeps the result of the previous
// successful import. Re-running with a different trim window or override
// set fully replaces the prior reading set.
func (imp *Importer) ImportSession(ctx context.Context, csvText, sessionID string, opts ...ImportOption) (int, error) {
	options := importOptions{trimEndMs: NoTrimEnd}
	for _, opt := range opts {
		opt(&options)
	}

	lock := imp.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	inserted, err := imp.runImport(ctx, csvText, sessionID, &options)
	if imp.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		imp.metrics.RecordImport(status, time.Since(start))
	}
	return inserted, err
}

func (imp *Importer) runImport(ctx context.Context, csvText, sessionID string, options *importOptions) (int, error) {
	capture, err := Parse(csvText)
	if err != nil {
		imp.recordFailure(StageParse)
		getLogger().Error("capture parse failed",
			"session_id", sessionID,
			"error", err)
		return 0, err
	}
	if imp.metrics != nil {
		for range capture.Len() {
			imp.metrics.IncrementRowsParsed()
		}
	}

	window := NewWindow(capture.SessionStartMs, options.trimStartMs, options.trimEndMs)

	resolver, err := imp.loadResolver(sessionID)
	if err != nil {
		imp.recordFailure(StageRoster)
		return 0, err
	}

	dropRow := func(reason DropReason) {
		options.hooks.rowDropped(reason)
		if imp.metrics != nil {
			imp.metrics.IncrementRowsDropped(string(reason))
		}
	}

	var readings []datastore.RawReading
	filtered := window.Filter(capture.Rows(), func(Row) { dropRow(DropBadTimestamp) })
	for row := range filtered {
		playerID, reason := resolver.Resolve(&row.Row)
		if reason != DropNone {
			dropRow(reason)
			continue
		}
		readings = append(readings, buildReading(sessionID, playerID, &row))
	}

	var session *datastore.Session
	if options.eventDraft != nil {
		session = options.eventDraft.toSession()
		// A chosen trim window rides along on the session row so the
		// exporter can report it. An open end stays zero.
		if options.trimStartMs != 0 || options.trimEndMs != NoTrimEnd {
			session.TrimStartTS = window.AbsStart
			if window.AbsEnd != NoTrimEnd {
				session.TrimEndTS = window.AbsEnd
			}
		}
	}

	inserted, err := imp.store.ReplaceSessionData(ctx, session, sessionID, readings)
	if err != nil {
		imp.recordFailure(StageTransaction)
		return 0, errors.New(err).
			Component("ingest").
			Category(errors.CategoryDatabase).
			Context("session_id", sessionID).
			Context("stage", StageTransaction).
			Build()
	}

	if imp.metrics != nil {
		imp.metrics.AddRowsInserted(inserted)
	}
	options.hooks.committed(sessionID, inserted)
	getLogger().Info("session import committed",
		"session_id", sessionID,
		"rows_parsed", capture.Len(),
		"rows_inserted", inserted,
		"abs_start", window.AbsStart,
		"abs_end", window.AbsEnd)
	return inserted, nil
}

// loadResolver assembles the session's resolver from the store: the active
// roster, the default pod mappings and the per-session override map.
func (imp *Importer) loadResolver(sessionID string) (*Resolver, error) {
	players, err := imp.store.ListPlayers()
	if err != nil {
		return nil, err
	}
	defaults := make(map[string]string, len(players))
	for i := range players {
		if players[i].DefaultPodSerial != "" {
			defaults[players[i].DefaultPodSerial] = players[i].PlayerID
		}
	}

	assigned, err := imp.store.GetAssignedPlayers(sessionID)
	if err != nil {
		return nil, err
	}
	var active []string
	for i := range assigned {
		if assigned[i].Assigned {
			active = append(active, assigned[i].PlayerID)
		}
	}

	overrides, err := imp.store.GetPodOverrides(sessionID)
	if err != nil {
		return nil, err
	}

	return NewResolver(active, defaults, overrides), nil
}

func (imp *Importer) recordFailure(stage string) {
	if imp.metrics != nil {
		imp.metrics.RecordImportError(stage)
	}
}

// buildReading maps a resolved row onto the stored reading columns.
func buildReading(sessionID, playerID string, row *TimedRow) datastore.RawReading {
	return datastore.RawReading{
		SessionID:   sessionID,
		PlayerID:    playerID,
		TimestampMs: row.TimestampMs,
		AccX:        row.Float("acc_x"),
		AccY:        row.Float("acc_y"),
		AccZ:        row.Float("acc_z"),
		QuatW:       row.Float("quat_w"),
		QuatX:       row.Float("quat_x"),
		QuatY:       row.Float("quat_y"),
		QuatZ:       row.Float("quat_z"),
		Lat:         row.Float("lat"),
		Lon:         row.Float("lon"),
		Heartrate:   row.Int("heartrate"),
	}
}
