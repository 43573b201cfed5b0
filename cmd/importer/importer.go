// Package importer implements the import subcommand: parse a capture file
// and replace the session's stored readings.
package importer

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pitchpod/pitchpod-go/internal/conf"
	"github.com/pitchpod/pitchpod-go/internal/datastore"
	"github.com/pitchpod/pitchpod-go/internal/ingest"
	"github.com/pitchpod/pitchpod-go/internal/logging"
	"github.com/pitchpod/pitchpod-go/internal/notify"
	"github.com/pitchpod/pitchpod-go/internal/observability"
)

// Command creates the import command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		sessionID string
		trimStart int64
		trimEnd   int64
		draft     ingest.EventDraft
	)

	cmd := &cobra.Command{
		Use:   "import [capture.csv]",
		Short: "Import a pod capture file into a session",
		Long: `Parse a capture CSV, filter it to the trim window, resolve pods to
players and atomically replace the session's stored readings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			return runImport(cmd.Context(), settings, args[0], sessionID, trimStart, trimEnd, &draft)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session id (generated when empty)")
	cmd.Flags().Int64Var(&trimStart, "trim-start", 0, "Trim window start, ms relative to the capture origin")
	cmd.Flags().Int64Var(&trimEnd, "trim-end", ingest.NoTrimEnd, "Trim window end, ms relative to the capture origin")
	cmd.Flags().StringVar(&draft.EventName, "event-name", "", "Event name stored on the session")
	cmd.Flags().StringVar(&draft.EventType, "event-type", datastore.EventTypeTraining, "Event type: match or training")
	cmd.Flags().StringVar(&draft.EventDate, "event-date", time.Now().Format(time.DateOnly), "Event date, ISO 8601")
	cmd.Flags().StringVar(&draft.Location, "location", "", "Event location")
	cmd.Flags().StringVar(&draft.Field, "field", "", "Pitch or field name")
	cmd.Flags().StringVar(&draft.Notes, "notes", "", "Free-form notes")

	return cmd
}

func runImport(ctx context.Context, settings *conf.Settings, capturePath, sessionID string, trimStart, trimEnd int64, draft *ingest.EventDraft) error {
	csvBytes, err := os.ReadFile(capturePath)
	if err != nil {
		return fmt.Errorf("failed to read capture file: %w", err)
	}

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no datastore enabled in settings")
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error("Failed to close datastore", "error", err)
		}
	}()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}
	if sqlite, ok := store.(*datastore.SQLiteStore); ok {
		sqlite.SetMetrics(metrics.Datastore)
	}

	// Long imports can be watched on the telemetry endpoint.
	var wg sync.WaitGroup
	quit := make(chan struct{})
	if settings.Telemetry.Enabled {
		endpoint, err := observability.NewEndpoint(settings, metrics)
		if err != nil {
			return err
		}
		endpoint.Start(&wg, quit)
		defer func() {
			close(quit)
			wg.Wait()
		}()
	}

	var dropped int
	hooks := &ingest.Hooks{
		RowDropped: func(ingest.DropReason) { dropped++ },
	}

	imp := ingest.NewImporter(store, metrics.Ingest)
	inserted, err := imp.ImportSession(ctx, string(csvBytes), sessionID,
		ingest.WithTrimWindow(trimStart, trimEnd),
		ingest.WithEventDraft(draft),
		ingest.WithHooks(hooks),
	)
	if err != nil {
		return err
	}

	fmt.Printf("Session %s: %d readings imported, %d rows dropped\n", sessionID, inserted, dropped)

	if settings.MQTT.Enabled {
		announce(ctx, settings, notify.ImportSummary{
			SessionID: sessionID,
			Inserted:  inserted,
			Dropped:   dropped,
		})
	}
	return nil
}

// announce publishes the import summary. Failures are logged only; the
// import itself has already committed.
func announce(ctx context.Context, settings *conf.Settings, summary notify.ImportSummary) {
	client, err := notify.NewClient(notify.ConfigFromSettings(settings))
	if err != nil {
		logging.Warn("Import notification skipped", "error", err)
		return
	}
	if err := client.Connect(ctx); err != nil {
		logging.Warn("Failed to connect to MQTT broker", "error", err)
		return
	}
	defer client.Disconnect()

	notifier, err := notify.NewNotifier(client, settings.MQTT.Topic)
	if err != nil {
		logging.Warn("Import notification skipped", "error", err)
		return
	}
	if err := notifier.ImportCommitted(ctx, summary); err != nil {
		logging.Warn("Failed to publish import summary", "error", err)
	}
}
