// Package roster provides read access to players, session assignments and
// pod overrides, with a TTL cache in front of the store. The assignment
// screen polls these views far more often than they change.
package roster

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/pitchpod/pitchpod-go/internal/datastore"
)

// DefaultCacheTTL is used when the configured TTL is zero.
const DefaultCacheTTL = 30 * time.Second

// Provider exposes the roster views the import pipeline and the assignment
// screen consume.
type Provider interface {
	ListPlayers() ([]datastore.Player, error)
	AssignedPlayers(sessionID string) ([]datastore.AssignedPlayer, error)
	PodOverrides(sessionID string) (map[string]*string, error)
}

// StoreProvider reads straight from the datastore with no caching.
type StoreProvider struct {
	store datastore.Interface
}

// NewStoreProvider wraps a datastore as an uncached Provider.
func NewStoreProvider(store datastore.Interface) *StoreProvider {
	return &StoreProvider{store: store}
}

func (p *StoreProvider) ListPlayers() ([]datastore.Player, error) {
	return p.store.ListPlayers()
}

func (p *StoreProvider) AssignedPlayers(sessionID string) ([]datastore.AssignedPlayer, error) {
	return p.store.GetAssignedPlayers(sessionID)
}

func (p *StoreProvider) PodOverrides(sessionID string) (map[string]*string, error) {
	return p.store.GetPodOverrides(sessionID)
}

// Cache keys. Session-scoped entries embed the session id so invalidation
// can target one session.
const (
	keyPlayers = "players"
)

func keyAssigned(sessionID string) string {
	return fmt.Sprintf("assigned:%s", sessionID)
}

func keyOverrides(sessionID string) string {
	return fmt.Sprintf("overrides:%s", sessionID)
}

// CachedProvider caches roster reads with a TTL. Writes that go through
// SaveAssignments or SaveOverrides invalidate the affected session; writes
// made elsewhere become visible when the TTL expires.
type CachedProvider struct {
	store datastore.Interface
	cache *cache.Cache
}

// NewCachedProvider creates a caching provider with the given TTL. A zero
// or negative TTL falls back to DefaultCacheTTL.
func NewCachedProvider(store datastore.Interface, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{
		store: store,
		cache: cache.New(ttl, 2*ttl),
	}
}

// ListPlayers returns the full roster ordered by jersey number.
func (p *CachedProvider) ListPlayers() ([]datastore.Player, error) {
	if cached, found := p.cache.Get(keyPlayers); found {
		return cached.([]datastore.Player), nil
	}
	players, err := p.store.ListPlayers()
	if err != nil {
		return nil, err
	}
	p.cache.SetDefault(keyPlayers, players)
	return players, nil
}

// AssignedPlayers returns the session's roster view with effective pods.
func (p *CachedProvider) AssignedPlayers(sessionID string) ([]datastore.AssignedPlayer, error) {
	key := keyAssigned(sessionID)
	if cached, found := p.cache.Get(key); found {
		return cached.([]datastore.AssignedPlayer), nil
	}
	assigned, err := p.store.GetAssignedPlayers(sessionID)
	if err != nil {
		return nil, err
	}
	p.cache.SetDefault(key, assigned)
	return assigned, nil
}

// PodOverrides returns the session's tri-state override map.
func (p *CachedProvider) PodOverrides(sessionID string) (map[string]*string, error) {
	key := keyOverrides(sessionID)
	if cached, found := p.cache.Get(key); found {
		return cached.(map[string]*string), nil
	}
	overrides, err := p.store.GetPodOverrides(sessionID)
	if err != nil {
		return nil, err
	}
	p.cache.SetDefault(key, overrides)
	return overrides, nil
}

// SaveAssignments persists the session's assignment set and invalidates the
// session's cached views.
func (p *CachedProvider) SaveAssignments(sessionID string, assigned map[string]bool) error {
	if err := p.store.SaveSessionPlayers(sessionID, assigned); err != nil {
		return err
	}
	p.InvalidateSession(sessionID)
	return nil
}

// SaveOverrides persists the session's override set and invalidates the
// session's cached views.
func (p *CachedProvider) SaveOverrides(sessionID string, overrides map[string]*string) error {
	if err := p.store.SavePodOverrides(sessionID, overrides); err != nil {
		return err
	}
	p.InvalidateSession(sessionID)
	return nil
}

// SavePlayers persists roster rows and invalidates the player list.
func (p *CachedProvider) SavePlayers(players []datastore.Player) error {
	if err := p.store.SavePlayers(players); err != nil {
		return err
	}
	p.cache.Delete(keyPlayers)
	return nil
}

// InvalidateSession drops the cached views for one session.
func (p *CachedProvider) InvalidateSession(sessionID string) {
	p.cache.Delete(keyAssigned(sessionID))
	p.cache.Delete(keyOverrides(sessionID))
}

// Flush drops every cached entry.
func (p *CachedProvider) Flush() {
	p.cache.Flush()
}
