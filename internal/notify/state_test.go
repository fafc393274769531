package notify

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// memStore is an in-memory store.Store for engine tests.
type memStore struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemStore() *memStore {
	return &memStore{m: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *memStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.m {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *memStore) Close() error { return nil }

// failStore always errors, to exercise the non-fatal persistence path.
type failStore struct{}

func (failStore) Get(context.Context, string) (string, bool, error) {
	return "", false, fmt.Errorf("disk on fire")
}
func (failStore) Set(context.Context, string, string) error {
	return fmt.Errorf("disk on fire")
}
func (failStore) Delete(context.Context, string) error { return fmt.Errorf("disk on fire") }
func (failStore) Keys(context.Context, string) ([]string, error) {
	return nil, fmt.Errorf("disk on fire")
}
func (failStore) Close() error { return nil }

func TestMarkerStoreRoundtrip(t *testing.T) {
	kv := newMemStore()
	ms := &markerStore{kv: kv, log: zerolog.Nop()}
	ctx := context.Background()

	markers := NewMarkers()
	markers.Read["n1"] = true
	markers.Deleted["n2"] = 12345
	tracked := NewTrackedState()
	tracked.LastStatus["o1"] = "preparing"
	tracked.SeenOrders["o2"] = true

	ms.Save(ctx, "admin", markers, tracked)

	gotMarkers, gotTracked := ms.Load(ctx, "admin")
	if !gotMarkers.Read["n1"] {
		t.Error("read marker lost in roundtrip")
	}
	if gotMarkers.Deleted["n2"] != 12345 {
		t.Error("deleted marker lost in roundtrip")
	}
	if gotTracked.LastStatus["o1"] != "preparing" {
		t.Error("tracked status lost in roundtrip")
	}
	if !gotTracked.SeenOrders["o2"] {
		t.Error("seen set lost in roundtrip")
	}
}

func TestMarkerStoreScopesAreIsolated(t *testing.T) {
	kv := newMemStore()
	ms := &markerStore{kv: kv, log: zerolog.Nop()}
	ctx := context.Background()

	adminMarkers := NewMarkers()
	adminMarkers.Read["admin-only"] = true
	ms.Save(ctx, "admin", adminMarkers, NewTrackedState())

	customerMarkers, _ := ms.Load(ctx, "customer")
	if len(customerMarkers.Read) != 0 {
		t.Errorf("customer scope contaminated: %v", customerMarkers.Read)
	}
}

func TestMarkerStoreLoadFailureYieldsEmptyState(t *testing.T) {
	ms := &markerStore{kv: failStore{}, log: zerolog.Nop()}

	markers, tracked := ms.Load(context.Background(), "customer")
	if markers == nil || tracked == nil {
		t.Fatal("expected empty state, got nil")
	}
	if len(markers.Read) != 0 || len(markers.Deleted) != 0 {
		t.Error("expected empty markers on load failure")
	}
}

func TestSweepDeletedDropsOldestFirst(t *testing.T) {
	m := NewMarkers()
	for i := 0; i < 10; i++ {
		m.Deleted[fmt.Sprintf("n%d", i)] = int64(i)
	}

	if !m.SweepDeleted(4) {
		t.Fatal("expected sweep to report a change")
	}
	if len(m.Deleted) != 4 {
		t.Fatalf("len = %d, want 4", len(m.Deleted))
	}
	for i := 6; i < 10; i++ {
		if _, ok := m.Deleted[fmt.Sprintf("n%d", i)]; !ok {
			t.Errorf("newest entry n%d was dropped", i)
		}
	}
}

func TestSweepDeletedNoopUnderCap(t *testing.T) {
	m := NewMarkers()
	m.Deleted["a"] = 1
	if m.SweepDeleted(1000) {
		t.Error("sweep under cap must report no change")
	}
	if len(m.Deleted) != 1 {
		t.Error("sweep under cap must not drop entries")
	}
}
