package podholder

import (
	"context"

	"github.com/pitchpod/pitchpod-go/internal/datastore"
	"github.com/pitchpod/pitchpod-go/internal/export"
)

// Uploader is the transport surface Sync needs. Satisfied by *Client.
type Uploader interface {
	Upload(ctx context.Context, filename, content string) error
}

// Syncer exports sessions and ships the documents to the base station. The
// local store is read-only input here: an upload failure never touches
// committed data, and re-running the sync simply re-exports.
type Syncer struct {
	exporter *export.Exporter
	uploader Uploader
}

// NewSyncer wires an exporter over the store to the given uploader.
func NewSyncer(store datastore.Interface, uploader Uploader) *Syncer {
	return &Syncer{
		exporter: export.New(store),
		uploader: uploader,
	}
}

// Sync renders the session's document and uploads it. Returns the uploaded
// filename. An unknown session fails with the store's not-found error; a
// transport failure surfaces as a network-category error.
func (s *Syncer) Sync(ctx context.Context, sessionID string) (string, error) {
	doc, err := s.exporter.Export(sessionID)
	if err != nil {
		return "", err
	}

	if err := s.uploader.Upload(ctx, doc.Filename, doc.Content); err != nil {
		return "", err
	}

	getLogger().Info("session synced",
		"session_id", sessionID,
		"filename", doc.Filename,
		"bytes", len(doc.Content))
	return doc.Filename, nil
}
