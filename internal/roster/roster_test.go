package roster

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchpod/pitchpod-go/internal/conf"
	"github.com/pitchpod/pitchpod-go/internal/datastore"
)

func newTestStore(t *testing.T) datastore.Interface {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "roster.db")

	store := datastore.New(settings)
	require.NotNil(t, store)
	require.NoError(t, store.Open())
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func seedPlayers(t *testing.T, store datastore.Interface) {
	t.Helper()
	require.NoError(t, store.SavePlayers([]datastore.Player{
		{PlayerID: "player_7", PlayerName: "Aino Korhonen", JerseyNumber: 7, DefaultPodSerial: "POD_A"},
		{PlayerID: "player_9", PlayerName: "Eetu Virtanen", JerseyNumber: 9, DefaultPodSerial: "POD_B"},
	}))
}

func TestStoreProviderPassesThrough(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	seedPlayers(t, store)

	provider := NewStoreProvider(store)
	players, err := provider.ListPlayers()
	require.NoError(t, err)
	assert.Len(t, players, 2)

	overrides, err := provider.PodOverrides("s1")
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestCachedProviderServesFromCache(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	seedPlayers(t, store)

	provider := NewCachedProvider(store, time.Minute)

	players, err := provider.ListPlayers()
	require.NoError(t, err)
	require.Len(t, players, 2)

	// A write bypassing the provider stays invisible until the TTL expires.
	require.NoError(t, store.SavePlayers([]datastore.Player{
		{PlayerID: "player_11", PlayerName: "Leo Nieminen", JerseyNumber: 11},
	}))

	players, err = provider.ListPlayers()
	require.NoError(t, err)
	assert.Len(t, players, 2, "cached roster must not see the direct write")
}

func TestCachedProviderWritesInvalidate(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	seedPlayers(t, store)

	provider := NewCachedProvider(store, time.Minute)

	players, err := provider.ListPlayers()
	require.NoError(t, err)
	require.Len(t, players, 2)

	require.NoError(t, provider.SavePlayers([]datastore.Player{
		{PlayerID: "player_11", PlayerName: "Leo Nieminen", JerseyNumber: 11},
	}))

	players, err = provider.ListPlayers()
	require.NoError(t, err)
	assert.Len(t, players, 3, "provider write must refresh the cache")
}

func TestCachedProviderSessionInvalidation(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	seedPlayers(t, store)

	provider := NewCachedProvider(store, time.Minute)

	require.NoError(t, provider.SaveAssignments("s1", map[string]bool{"player_7": true}))

	assigned, err := provider.AssignedPlayers("s1")
	require.NoError(t, err)
	require.Len(t, assigned, 1)

	require.NoError(t, provider.SaveAssignments("s1", map[string]bool{
		"player_7": true,
		"player_9": true,
	}))

	assigned, err = provider.AssignedPlayers("s1")
	require.NoError(t, err)
	assert.Len(t, assigned, 2)
}

func TestCachedProviderOverridesKeepTriState(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	seedPlayers(t, store)

	provider := NewCachedProvider(store, time.Minute)

	player := "player_9"
	require.NoError(t, provider.SaveOverrides("s1", map[string]*string{
		"POD_A": nil,
		"POD_B": &player,
	}))

	overrides, err := provider.PodOverrides("s1")
	require.NoError(t, err)
	require.Len(t, overrides, 2)

	disabled, present := overrides["POD_A"]
	require.True(t, present)
	assert.Nil(t, disabled, "cache must not collapse the disable into absence")
	require.NotNil(t, overrides["POD_B"])
	assert.Equal(t, "player_9", *overrides["POD_B"])
}

func TestCachedProviderZeroTTLFallsBack(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	provider := NewCachedProvider(store, 0)
	require.NotNil(t, provider)

	_, err := provider.ListPlayers()
	require.NoError(t, err)
}
