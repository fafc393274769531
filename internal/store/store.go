package store

import "context"

// Store defines the durable key-value persistence interface used for
// read/deleted markers and tracked state. Values are opaque blobs
// (JSON in practice); keys are role-scoped by the caller.
//
// Implementations must tolerate fire-and-forget use: a failed write is
// reported as an error but must never leave the store unusable.
type Store interface {
	// Get returns the value for key. A missing key returns ("", false, nil).
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases the underlying resources.
	Close() error
}
