package store_test

import (
	"context"
	"testing"

	"github.com/nhle/restaurant-notify/tests/testutil"
)

func TestGetMissingKey(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	value, found, err := s.Get(ctx, "notify/customer/read")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Errorf("expected missing key, got value %q", value)
	}
}

func TestSetGetRoundtrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "notify/admin/read", `{"a":true}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	value, found, err := s.Get(ctx, "notify/admin/read")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("expected key to exist")
	}
	if value != `{"a":true}` {
		t.Errorf("value = %q, want %q", value, `{"a":true}`)
	}
}

func TestSetReplacesValue(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Set (replace): %v", err)
	}

	value, _, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != "v2" {
		t.Errorf("value = %q, want %q", value, "v2")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete (again): %v", err)
	}

	_, found, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("expected key to be gone after delete")
	}
}

func TestKeysPrefix(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, key := range []string{
		"notify/admin/read",
		"notify/admin/deleted",
		"notify/customer/read",
	} {
		if err := s.Set(ctx, key, "{}"); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}

	keys, err := s.Keys(ctx, "notify/admin/")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{"notify/admin/deleted", "notify/admin/read"}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys %v, want %d", len(keys), keys, len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}
