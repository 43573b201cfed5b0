package podholder

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchpod/pitchpod-go/internal/conf"
	"github.com/pitchpod/pitchpod-go/internal/datastore"
	"github.com/pitchpod/pitchpod-go/internal/errors"
	"github.com/pitchpod/pitchpod-go/internal/httpclient"
)

// newMockedClient builds a client whose HTTP layer is backed by httpmock.
func newMockedClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()

	transport := httpmock.NewMockTransport()
	return &Client{
		endpoint: "http://pod.local",
		http:     httpclient.New(&httpclient.Config{Transport: transport}),
	}, transport
}

func TestNewClientRequiresEnabledEndpoint(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	_, err := NewClient(settings)
	require.Error(t, err, "disabled integration must not build a client")

	settings.Podholder.Enabled = true
	_, err = NewClient(settings)
	require.Error(t, err, "missing endpoint must not build a client")

	settings.Podholder.Endpoint = "http://192.168.4.1/"
	client, err := NewClient(settings)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	assert.Equal(t, "http://192.168.4.1", client.endpoint)
}

func TestUploadSendsDocument(t *testing.T) {
	t.Parallel()

	client, transport := newMockedClient(t)
	t.Cleanup(client.Close)

	var gotFilename, gotBody, gotContentType string
	transport.RegisterResponder(http.MethodPost, "http://pod.local/upload",
		func(req *http.Request) (*http.Response, error) {
			gotFilename = req.URL.Query().Get("filename")
			gotContentType = req.Header.Get("Content-Type")
			body, _ := io.ReadAll(req.Body)
			gotBody = string(body)
			return httpmock.NewStringResponse(http.StatusOK, "stored"), nil
		})

	err := client.Upload(context.Background(), "s1_synced.csv", "### SESSION METADATA ###\n")
	require.NoError(t, err)
	assert.Equal(t, "s1_synced.csv", gotFilename)
	assert.Equal(t, "text/csv", gotContentType)
	assert.Equal(t, "### SESSION METADATA ###\n", gotBody)
}

func TestUploadRejectedByFirmware(t *testing.T) {
	t.Parallel()

	client, transport := newMockedClient(t)
	t.Cleanup(client.Close)

	transport.RegisterResponder(http.MethodPost, "http://pod.local/upload",
		httpmock.NewStringResponder(http.StatusInsufficientStorage, "card full"))

	err := client.Upload(context.Background(), "s1_synced.csv", "data")
	require.Error(t, err)

	var enhanced *errors.EnhancedError
	require.True(t, errors.As(err, &enhanced))
	assert.Equal(t, string(errors.CategoryNetwork), enhanced.GetCategory())
}

func TestUploadTransportFailure(t *testing.T) {
	t.Parallel()

	client, transport := newMockedClient(t)
	t.Cleanup(client.Close)

	transport.RegisterResponder(http.MethodPost, "http://pod.local/upload",
		httpmock.NewErrorResponder(context.DeadlineExceeded))

	err := client.Upload(context.Background(), "s1_synced.csv", "data")
	require.Error(t, err)

	var enhanced *errors.EnhancedError
	require.True(t, errors.As(err, &enhanced))
	assert.Equal(t, string(errors.CategoryNetwork), enhanced.GetCategory())
}

func TestPing(t *testing.T) {
	t.Parallel()

	client, transport := newMockedClient(t)
	t.Cleanup(client.Close)

	transport.RegisterResponder(http.MethodGet, "http://pod.local/health",
		httpmock.NewStringResponder(http.StatusOK, "ok"))
	require.NoError(t, client.Ping(context.Background()))

	transport.Reset()
	transport.RegisterResponder(http.MethodGet, "http://pod.local/health",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "busy"))
	require.Error(t, client.Ping(context.Background()))
}

func TestSyncExportsAndUploads(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "sync.db")

	store := datastore.New(settings)
	require.NotNil(t, store)
	require.NoError(t, store.Open())
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	session := &datastore.Session{
		EventName: "Evening Match",
		EventType: datastore.EventTypeMatch,
		EventDate: "2026-08-26",
		CreatedAt: time.Now(),
	}
	_, err := store.ReplaceSessionData(context.Background(), session, "s1", []datastore.RawReading{
		{PlayerID: "player_7", TimestampMs: 1000, Heartrate: 130},
	})
	require.NoError(t, err)

	client, transport := newMockedClient(t)
	t.Cleanup(client.Close)

	var uploaded string
	transport.RegisterResponder(http.MethodPost, "http://pod.local/upload",
		func(req *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(req.Body)
			uploaded = string(body)
			return httpmock.NewStringResponse(http.StatusOK, "stored"), nil
		})

	filename, err := NewSyncer(store, client).Sync(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1_synced.csv", filename)
	assert.Contains(t, uploaded, "### SESSION METADATA ###")
	assert.Contains(t, uploaded, "Event Name: Evening Match")
	assert.Contains(t, uploaded, "player_7,1000,0,0,0,0,0,0,0,0,0,130")
}

func TestSyncUnknownSessionSkipsUpload(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "sync.db")

	store := datastore.New(settings)
	require.NotNil(t, store)
	require.NoError(t, store.Open())
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	client, transport := newMockedClient(t)
	t.Cleanup(client.Close)

	_, err := NewSyncer(store, client).Sync(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, datastore.ErrSessionNotFound))
	assert.Zero(t, transport.GetTotalCallCount(), "no upload without a document")
}
