package runlock

import (
	"context"
	"sync"
)

// InMemoryRunLock implements RunLock for single-process deployments, where
// overlapping runs can only come from this process's own scheduler.
type InMemoryRunLock struct {
	mu   sync.Mutex
	held bool
}

// NewInMemoryRunLock creates an in-memory run lock.
func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{}
}

// Acquire takes the lock if it is free. Never blocks.
func (l *InMemoryRunLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

// Release frees the lock.
func (l *InMemoryRunLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	return nil
}

var _ RunLock = (*InMemoryRunLock)(nil)
