package notify

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/rs/zerolog"

	"github.com/nhle/restaurant-notify/internal/store"
)

// TrackedState is the per-session memory of what has already been
// surfaced. It is owned by the engine and mutated in place on every
// poll; a durable snapshot is flushed on the persistence cadence.
type TrackedState struct {
	// LastStatus maps order ID to the last observed status, used to
	// detect transitions. It is updated for every observed order
	// whether or not a notification was emitted.
	LastStatus map[string]string `json:"last_status"`

	// Seen* record IDs already surfaced as "new", guaranteeing
	// at-most-once emission per ID for the lifetime of the session.
	SeenOrders   map[string]bool `json:"seen_orders"`
	SeenMessages map[string]bool `json:"seen_messages"`
	SeenReviews  map[string]bool `json:"seen_reviews"`
	SeenUsers    map[string]bool `json:"seen_users"`
}

// NewTrackedState returns an empty tracked state.
func NewTrackedState() *TrackedState {
	return &TrackedState{
		LastStatus:   make(map[string]string),
		SeenOrders:   make(map[string]bool),
		SeenMessages: make(map[string]bool),
		SeenReviews:  make(map[string]bool),
		SeenUsers:    make(map[string]bool),
	}
}

// Markers are the durable read/deleted ID sets. They survive process
// restarts and are keyed by role scope in the store, because customer
// and admin callers observe different event universes.
type Markers struct {
	// Read holds IDs the user has marked as read.
	Read map[string]bool `json:"read"`

	// Deleted maps cleared IDs to their deletion time in epoch
	// milliseconds. The timestamp drives the retention sweep.
	Deleted map[string]int64 `json:"deleted"`
}

// NewMarkers returns empty marker sets.
func NewMarkers() *Markers {
	return &Markers{
		Read:    make(map[string]bool),
		Deleted: make(map[string]int64),
	}
}

// SweepDeleted caps the deleted set at max entries, dropping the oldest
// first. It reports whether anything was dropped.
func (m *Markers) SweepDeleted(max int) bool {
	if max <= 0 || len(m.Deleted) <= max {
		return false
	}

	type entry struct {
		id string
		at int64
	}
	entries := make([]entry, 0, len(m.Deleted))
	for id, at := range m.Deleted {
		entries = append(entries, entry{id: id, at: at})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].at > entries[j].at
	})

	for _, e := range entries[max:] {
		delete(m.Deleted, e.id)
	}
	return true
}

// Store key layout: notify/<scope>/<kind>.
const (
	kindRead    = "read"
	kindDeleted = "deleted"
	kindTracked = "tracked"
)

func stateKey(scope, kind string) string {
	return "notify/" + scope + "/" + kind
}

// markerStore wraps the KV store with JSON (de)serialization for the
// engine's durable blobs. All failures are non-fatal: they are logged
// and the engine continues operating in-memory-only for that cycle.
type markerStore struct {
	kv  store.Store
	log zerolog.Logger
}

// Load hydrates markers and tracked state for the given scope. Missing
// or unreadable blobs yield empty values.
func (ms *markerStore) Load(ctx context.Context, scope string) (*Markers, *TrackedState) {
	markers := NewMarkers()
	ms.loadBlob(ctx, stateKey(scope, kindRead), &markers.Read)
	ms.loadBlob(ctx, stateKey(scope, kindDeleted), &markers.Deleted)

	tracked := NewTrackedState()
	ms.loadBlob(ctx, stateKey(scope, kindTracked), tracked)

	// Guard against nil maps from partial blobs.
	if markers.Read == nil {
		markers.Read = make(map[string]bool)
	}
	if markers.Deleted == nil {
		markers.Deleted = make(map[string]int64)
	}
	if tracked.LastStatus == nil {
		tracked.LastStatus = make(map[string]string)
	}
	if tracked.SeenOrders == nil {
		tracked.SeenOrders = make(map[string]bool)
	}
	if tracked.SeenMessages == nil {
		tracked.SeenMessages = make(map[string]bool)
	}
	if tracked.SeenReviews == nil {
		tracked.SeenReviews = make(map[string]bool)
	}
	if tracked.SeenUsers == nil {
		tracked.SeenUsers = make(map[string]bool)
	}

	return markers, tracked
}

// Save persists markers and tracked state for the given scope. Errors
// are logged and swallowed.
func (ms *markerStore) Save(ctx context.Context, scope string, markers *Markers, tracked *TrackedState) {
	ms.saveBlob(ctx, stateKey(scope, kindRead), markers.Read)
	ms.saveBlob(ctx, stateKey(scope, kindDeleted), markers.Deleted)
	ms.saveBlob(ctx, stateKey(scope, kindTracked), tracked)
}

func (ms *markerStore) loadBlob(ctx context.Context, key string, dest interface{}) {
	raw, found, err := ms.kv.Get(ctx, key)
	if err != nil {
		ms.log.Warn().Err(err).Str("key", key).Msg("loading state blob failed")
		return
	}
	if !found {
		return
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		ms.log.Warn().Err(err).Str("key", key).Msg("decoding state blob failed")
	}
}

func (ms *markerStore) saveBlob(ctx context.Context, key string, src interface{}) {
	raw, err := json.Marshal(src)
	if err != nil {
		ms.log.Warn().Err(err).Str("key", key).Msg("encoding state blob failed")
		return
	}
	if err := ms.kv.Set(ctx, key, string(raw)); err != nil {
		ms.log.Warn().Err(err).Str("key", key).Msg("saving state blob failed")
	}
}
