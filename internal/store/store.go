// Package store defines the path-addressed remote store the reconciliation
// engine runs against, plus the redis, mongo and in-memory implementations.
//
// The store is eventually consistent and offers no cross-path transactions.
// Multi-step operations built on top of it are therefore not atomic; callers
// observe and report partial failures instead.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by ReadOnce when no value exists at the path.
var ErrNotFound = errors.New("no value at path")

// Snapshot is a full-replace view of every entry under a prefix. Watchers
// always receive complete snapshots, never incremental patches, so a missed
// notification can not cause drift.
type Snapshot struct {
	Prefix  string
	Entries map[string]json.RawMessage
}

// Store is the remote key/value contract consumed by the engine.
// Writes and deletes are acknowledged individually; there is no batching
// and no way to retract an issued operation.
type Store interface {
	// Write marshals value as JSON and stores it at path, replacing any
	// previous value. Re-applying the same write is safe.
	Write(ctx context.Context, path string, value any) error

	// Delete removes the value at path. Deleting an absent path is not an
	// error.
	Delete(ctx context.Context, path string) error

	// ReadOnce reads the value at path into dest, or returns ErrNotFound.
	ReadOnce(ctx context.Context, path string, dest any) error

	// List returns every entry whose path sits directly or transitively
	// under prefix.
	List(ctx context.Context, prefix string) (map[string]json.RawMessage, error)

	// Watch emits a Snapshot of the prefix on subscription and again after
	// every observed change. The channel closes when ctx is done. A watch
	// is restartable by calling Watch again.
	Watch(ctx context.Context, prefix string) (<-chan Snapshot, error)
}
