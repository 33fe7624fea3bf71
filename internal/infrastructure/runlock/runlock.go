// Package runlock guards against overlapping sync runs. The sync core
// requires that a single run owns all state writes for the SKUs it
// processes; the scheduler acquires one of these locks before every run.
package runlock

import "context"

// RunLock is a mutual-exclusion lock around a sync run. Acquire returns
// false when another holder already owns the lock; that run should be
// skipped, not queued.
type RunLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}
