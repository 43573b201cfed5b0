// Package trim implements the trim subcommand: store a session's chosen
// trim window ahead of the final re-import.
package trim

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pitchpod/pitchpod-go/internal/conf"
	"github.com/pitchpod/pitchpod-go/internal/datastore"
	"github.com/pitchpod/pitchpod-go/internal/logging"
)

// Command creates the trim command.
func Command(settings *conf.Settings) *cobra.Command {
	var startTS, endTS int64

	cmd := &cobra.Command{
		Use:   "trim [session-id]",
		Short: "Store a session's trim window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrim(settings, args[0], startTS, endTS)
		},
	}

	cmd.Flags().Int64Var(&startTS, "start", 0, "Absolute window start, ms")
	cmd.Flags().Int64Var(&endTS, "end", 0, "Absolute window end, ms (0 for open-ended)")

	return cmd
}

func runTrim(settings *conf.Settings, sessionID string, startTS, endTS int64) error {
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

	if err := store.SetTrimWindow(sessionID, startTS, endTS); err != nil {
		return err
	}

	fmt.Printf("Session %s trim window set to [%d, %d]\n", sessionID, startTS, endTS)
	return nil
}
