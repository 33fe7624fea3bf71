package integration

import (
	"context"
	"time"
)

// SyncState is the durable per-SKU sync record: the fingerprint of the last
// successfully synced payload and when it was sent. States are created on a
// SKU's first successful sync, updated on every later successful sync of a
// changed payload, and never deleted by the sync core.
type SyncState struct {
	SKU          string
	Fingerprint  Fingerprint
	LastSyncedAt time.Time
}

// StateStore is the persistence contract for sync states, keyed uniquely by
// SKU. All operations are bulk so that a run costs a fixed number of queries
// regardless of record count.
type StateStore interface {
	// FetchBySKUs returns the existing states for the given SKUs, keyed by
	// SKU. SKUs without a state are simply absent from the result.
	FetchBySKUs(ctx context.Context, skus []string) (map[string]*SyncState, error)

	// BulkCreate persists new states in a single write.
	BulkCreate(ctx context.Context, states []*SyncState) error

	// BulkUpdate persists fingerprint and last-synced timestamp changes for
	// existing states in a single write. Other columns are left untouched.
	BulkUpdate(ctx context.Context, states []*SyncState) error
}
