// Package export implements the export subcommand: render a session's sync
// document to a local file.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pitchpod/pitchpod-go/internal/conf"
	"github.com/pitchpod/pitchpod-go/internal/datastore"
	"github.com/pitchpod/pitchpod-go/internal/export"
	"github.com/pitchpod/pitchpod-go/internal/logging"
)

// Command creates the export command.
func Command(settings *conf.Settings) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "export [session-id]",
		Short: "Export a session as a sync document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(settings, args[0], outputDir)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory to write the document to")

	return cmd
}

func runExport(settings *conf.Settings, sessionID, outputDir string) error {
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

	doc, err := export.New(store).Export(sessionID)
	if err != nil {
		return err
	}

	target := filepath.Join(outputDir, doc.Filename)
	if err := os.WriteFile(target, []byte(doc.Content), 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	fmt.Printf("Exported session %s to %s\n", sessionID, target)
	return nil
}
