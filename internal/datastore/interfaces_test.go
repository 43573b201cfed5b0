package datastore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchpod/pitchpod-go/internal/conf"
	"github.com/pitchpod/pitchpod-go/internal/errors"
)

// createTestStore opens a fresh sqlite store under a temp directory.
func createTestStore(t *testing.T) Interface {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store := New(settings)
	require.NotNil(t, store, "expected a store for enabled sqlite settings")
	require.NoError(t, store.Open())
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func testSession(sessionID string) *Session {
	return &Session{
		SessionID: sessionID,
		EventName: "Tuesday Training",
		EventType: EventTypeTraining,
		EventDate: "2026-08-25",
		Location:  "North Ground",
		CreatedAt: time.Now(),
	}
}

func testReadings(sessionID string, timestamps ...int64) []RawReading {
	readings := make([]RawReading, 0, len(timestamps))
	for _, ts := range timestamps {
		readings = append(readings, RawReading{
			SessionID:   sessionID,
			PlayerID:    "player_7",
			TimestampMs: ts,
			AccX:        0.5,
			Heartrate:   120,
		})
	}
	return readings
}

func TestReplaceSessionDataRoundTrip(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)

	inserted, err := store.ReplaceSessionData(context.Background(),
		testSession("s1"), "s1", testReadings("s1", 1000, 1005, 1010))
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	session, err := store.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, "Tuesday Training", session.EventName)

	readings, err := store.GetRawReadings("s1")
	require.NoError(t, err)
	require.Len(t, readings, 3)
	assert.Equal(t, int64(1000), readings[0].TimestampMs)
	assert.Equal(t, int64(1010), readings[2].TimestampMs)

	count, err := store.CountRawReadings("s1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestReplaceSessionDataIsIdempotent(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)

	readings := testReadings("s1", 1000, 1005)
	_, err := store.ReplaceSessionData(context.Background(), testSession("s1"), "s1", readings)
	require.NoError(t, err)

	inserted, err := store.ReplaceSessionData(context.Background(), testSession("s1"), "s1", testReadings("s1", 1000, 1005))
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	count, err := store.CountRawReadings("s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "re-import must not accumulate rows")
}

func TestReplaceSessionDataReplacesPriorSnapshot(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)

	_, err := store.ReplaceSessionData(context.Background(), testSession("s1"), "s1", testReadings("s1", 1000, 1005, 1010))
	require.NoError(t, err)

	// Narrower second import fully replaces the first.
	_, err = store.ReplaceSessionData(context.Background(), nil, "s1", testReadings("s1", 1005))
	require.NoError(t, err)

	readings, err := store.GetRawReadings("s1")
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, int64(1005), readings[0].TimestampMs)
}

func TestReplaceSessionDataRollsBackOnFailure(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)

	_, err := store.ReplaceSessionData(context.Background(), testSession("s1"), "s1", testReadings("s1", 1000, 1005))
	require.NoError(t, err)

	// A negative timestamp violates the raw_data check constraint partway
	// through the insert loop.
	bad := testReadings("s1", 2000, -1, 2010)
	_, err = store.ReplaceSessionData(context.Background(), nil, "s1", bad)
	require.Error(t, err)

	readings, err := store.GetRawReadings("s1")
	require.NoError(t, err)
	require.Len(t, readings, 2, "failed import must leave the prior snapshot intact")
	assert.Equal(t, int64(1000), readings[0].TimestampMs)
	assert.Equal(t, int64(1005), readings[1].TimestampMs)
}

func TestReplaceSessionDataHonorsCanceledContext(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ReplaceSessionData(ctx, testSession("s1"), "s1", testReadings("s1", 1000))
	require.Error(t, err)

	exists, err := store.SessionExists("s1")
	require.NoError(t, err)
	assert.False(t, exists, "canceled import must not write anything")
}

func TestGetSessionNotFound(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)

	_, err := store.GetSession("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestSessionExists(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)

	exists, err := store.SessionExists("s1")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.ReplaceSessionData(context.Background(), testSession("s1"), "s1", nil)
	require.NoError(t, err)

	exists, err = store.SessionExists("s1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSetTrimWindow(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)

	_, err := store.ReplaceSessionData(context.Background(), testSession("s1"), "s1", nil)
	require.NoError(t, err)

	require.NoError(t, store.SetTrimWindow("s1", 1000000, 1005000))

	session, err := store.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000000), session.TrimStartTS)
	assert.Equal(t, int64(1005000), session.TrimEndTS)
}

func TestSetTrimWindowUnknownSession(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)

	err := store.SetTrimWindow("missing", 0, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}
