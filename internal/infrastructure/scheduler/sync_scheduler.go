// Package scheduler triggers sync runs on a fixed interval and owns the
// whole-run retry policy. Per-record failures are the orchestrator's
// business; this package only deals in entire runs.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/symmy/integrator/internal/domain/integration"
	"github.com/symmy/integrator/internal/infrastructure/runlock"
)

// SyncRunner executes one full sync run.
type SyncRunner interface {
	Run(ctx context.Context) (*integration.RunStats, error)
}

// Config holds scheduler configuration.
type Config struct {
	// Interval between run triggers.
	Interval time.Duration
	// RetryAttempts is the total number of attempts per trigger,
	// including the first one.
	RetryAttempts int
	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		Interval:      600 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    60 * time.Second,
	}
}

// SyncScheduler invokes the runner every Interval. Each trigger acquires the
// run lock first; when another run still holds it, the trigger is skipped
// rather than queued.
type SyncScheduler struct {
	config Config
	runner SyncRunner
	lock   runlock.RunLock
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	sleep func(time.Duration) // injected for tests
}

// NewSyncScheduler creates a scheduler instance.
func NewSyncScheduler(config Config, runner SyncRunner, lock runlock.RunLock, logger *zap.Logger) *SyncScheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = DefaultConfig().RetryAttempts
	}
	return &SyncScheduler{
		config: config,
		runner: runner,
		lock:   lock,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Start starts the periodic trigger loop.
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Sync scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("retry_attempts", s.config.RetryAttempts),
	)
	return nil
}

// Stop gracefully stops the scheduler, waiting for an in-flight run to
// finish or the given context to expire.
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// runLoop fires the trigger every interval until the context is cancelled.
func (s *SyncScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.trigger(ctx)
		}
	}
}

// trigger runs one scheduled sync under the run lock.
func (s *SyncScheduler) trigger(ctx context.Context) {
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		s.logger.Error("Failed to acquire run lock", zap.Error(err))
		return
	}
	if !acquired {
		s.logger.Warn("Previous sync run still in progress, skipping trigger")
		return
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logger.Error("Failed to release run lock", zap.Error(err))
		}
	}()

	s.runWithRetry(ctx)
}

// runWithRetry executes the run, retrying the whole run on failure up to the
// configured number of attempts with a fixed delay between them.
func (s *SyncScheduler) runWithRetry(ctx context.Context) {
	for attempt := 1; attempt <= s.config.RetryAttempts; attempt++ {
		stats, err := s.runner.Run(ctx)
		if err == nil {
			s.logger.Info("Scheduled sync run finished",
				zap.String("run_id", stats.RunID.String()),
				zap.Int("synced", stats.Synced),
				zap.Int("skipped_unchanged", stats.SkippedUnchanged),
				zap.Int("skipped_invalid", stats.SkippedInvalid),
				zap.Int("errors", stats.Errors),
			)
			return
		}

		s.logger.Error("Sync run failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.config.RetryAttempts),
			zap.Error(err),
		)
		if attempt < s.config.RetryAttempts {
			s.sleep(s.config.RetryDelay)
		}
	}

	s.logger.Error("Sync run abandoned after exhausting retries",
		zap.Int("attempts", s.config.RetryAttempts),
	)
}
