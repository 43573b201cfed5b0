// Package sync implements the sync subcommand: export a session and upload
// the document to the podholder base station.
package sync

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pitchpod/pitchpod-go/internal/conf"
	"github.com/pitchpod/pitchpod-go/internal/datastore"
	"github.com/pitchpod/pitchpod-go/internal/logging"
	"github.com/pitchpod/pitchpod-go/internal/observability"
	"github.com/pitchpod/pitchpod-go/internal/podholder"
)

// Command creates the sync command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [session-id]",
		Short: "Upload a session's sync document to the podholder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, settings, args[0])
		},
	}
}

func runSync(cmd *cobra.Command, settings *conf.Settings, sessionID string) error {
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

	client, err := podholder.NewClient(settings)
	if err != nil {
		return err
	}
	defer client.Close()

	if metrics, err := observability.NewMetrics(); err == nil {
		client.SetMetrics(metrics.Podholder)
	}

	filename, err := podholder.NewSyncer(store, client).Sync(cmd.Context(), sessionID)
	if err != nil {
		return err
	}

	fmt.Printf("Session %s synced to %s\n", sessionID, filename)
	return nil
}
