package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/symmy/integrator/internal/domain/integration"
	"github.com/symmy/integrator/internal/infrastructure/runlock"
)

type stubRunner struct {
	mu      sync.Mutex
	calls   int
	results []error
}

func (r *stubRunner) Run(ctx context.Context) (*integration.RunStats, error) {
	r.mu.Lock()
	call := r.calls
	r.calls++
	r.mu.Unlock()

	if call < len(r.results) && r.results[call] != nil {
		return nil, r.results[call]
	}
	return integration.NewRunStats(), nil
}

func (r *stubRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newTestScheduler(runner *stubRunner, cfg Config) *SyncScheduler {
	s := NewSyncScheduler(cfg, runner, runlock.NewInMemoryRunLock(), zap.NewNop())
	s.sleep = func(time.Duration) {}
	return s
}

func TestSyncScheduler_TriggersRunsOnInterval(t *testing.T) {
	runner := &stubRunner{}
	s := newTestScheduler(runner, Config{Interval: 10 * time.Millisecond, RetryAttempts: 1})

	require.NoError(t, s.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, s.Stop(ctx))
	}()

	assert.Eventually(t, func() bool {
		return runner.callCount() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestSyncScheduler_RetriesFailedRun(t *testing.T) {
	runner := &stubRunner{results: []error{
		errors.New("load failed"),
		errors.New("load failed again"),
		nil,
	}}
	s := newTestScheduler(runner, Config{Interval: 10 * time.Millisecond, RetryAttempts: 3})

	s.runWithRetry(context.Background())
	assert.Equal(t, 3, runner.callCount())
}

func TestSyncScheduler_GivesUpAfterRetryBudget(t *testing.T) {
	boom := errors.New("boom")
	runner := &stubRunner{results: []error{boom, boom, boom, boom}}
	s := newTestScheduler(runner, Config{Interval: time.Hour, RetryAttempts: 3})

	s.runWithRetry(context.Background())
	assert.Equal(t, 3, runner.callCount())
}

func TestSyncScheduler_SkipsTriggerWhenLockHeld(t *testing.T) {
	runner := &stubRunner{}
	lock := runlock.NewInMemoryRunLock()
	s := NewSyncScheduler(Config{Interval: time.Hour, RetryAttempts: 1}, runner, lock, zap.NewNop())
	s.sleep = func(time.Duration) {}

	held, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, held)

	s.trigger(context.Background())
	assert.Equal(t, 0, runner.callCount(), "trigger must be skipped while the lock is held")

	require.NoError(t, lock.Release(context.Background()))
	s.trigger(context.Background())
	assert.Equal(t, 1, runner.callCount())
}

func TestSyncScheduler_StopIsIdempotent(t *testing.T) {
	s := newTestScheduler(&stubRunner{}, Config{Interval: time.Hour, RetryAttempts: 1})
	require.NoError(t, s.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
}
