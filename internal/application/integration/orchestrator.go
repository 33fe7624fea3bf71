package integration

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/symmy/integrator/internal/domain/integration"
)

// Config holds the orchestrator's tunables.
type Config struct {
	// RateLimit is the maximum outbound dispatch rate in requests per
	// second, enforced via fixed-interval pacing before every dispatch,
	// including the first one.
	RateLimit float64
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{RateLimit: 5}
}

// Orchestrator composes one delta-sync run: load, deduplicate, validate,
// transform, compare fingerprints against the state store, dispatch changed
// payloads at a paced rate, and persist the new states in bulk.
//
// A single orchestrator instance runs one sync at a time; callers must not
// start overlapping runs against overlapping SKU sets.
type Orchestrator struct {
	source integration.Source
	client integration.Dispatcher
	store  integration.StateStore
	config Config
	logger *zap.Logger

	// Injected for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// candidate is a validated record ready for change detection.
type candidate struct {
	payload     integration.Payload
	fingerprint integration.Fingerprint
}

// NewOrchestrator wires a sync orchestrator from its collaborators.
func NewOrchestrator(
	source integration.Source,
	client integration.Dispatcher,
	store integration.StateStore,
	config Config,
	logger *zap.Logger,
) *Orchestrator {
	if config.RateLimit <= 0 {
		config.RateLimit = DefaultConfig().RateLimit
	}
	return &Orchestrator{
		source: source,
		client: client,
		store:  store,
		config: config,
		logger: logger,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Run executes one full sync and returns its statistics.
//
// Per-record failures (validation, dispatch) are counted and never abort the
// run. A source load failure or a state store failure aborts the run with a
// nil result; the caller's scheduler owns whole-run retries.
//
// Running twice over unchanged source data yields Synced=0 on the second
// run, provided the first run succeeded for every record.
func (o *Orchestrator) Run(ctx context.Context) (*integration.RunStats, error) {
	stats := integration.NewRunStats()
	log := o.logger.With(zap.String("run_id", stats.RunID.String()))
	log.Info("Starting product sync")

	rawRecords, err := o.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}
	rawRecords = integration.Deduplicate(rawRecords)

	session, err := o.client.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open e-shop session: %w", err)
	}

	candidates := make([]candidate, 0, len(rawRecords))
	for _, raw := range rawRecords {
		valid, reason := integration.Validate(raw)
		if !valid {
			log.Warn("Skipping invalid product", zap.String("reason", reason))
			stats.SkippedInvalid++
			continue
		}
		payload := integration.Transform(raw)
		candidates = append(candidates, candidate{
			payload:     payload,
			fingerprint: integration.ComputeFingerprint(payload),
		})
	}

	// One bulk fetch instead of N lookups.
	skus := make([]string, len(candidates))
	for i, c := range candidates {
		skus[i] = c.payload.SKU
	}
	existing, err := o.store.FetchBySKUs(ctx, skus)
	if err != nil {
		return nil, fmt.Errorf("fetch sync states: %w", err)
	}

	var toCreate, toUpdate []*integration.SyncState
	interval := time.Duration(float64(time.Second) / o.config.RateLimit)
	now := o.now()

	for _, c := range candidates {
		sku := c.payload.SKU
		state := existing[sku]

		if state != nil && state.Fingerprint == c.fingerprint {
			log.Debug("Product unchanged, skipping", zap.String("sku", sku))
			stats.SkippedUnchanged++
			continue
		}
		isUpdate := state != nil

		o.sleep(interval)
		if _, err := session.Send(ctx, c.payload, isUpdate); err != nil {
			log.Error("Failed to sync product", zap.String("sku", sku), zap.Error(err))
			stats.Errors++
			continue
		}

		if isUpdate {
			state.Fingerprint = c.fingerprint
			state.LastSyncedAt = now
			toUpdate = append(toUpdate, state)
		} else {
			toCreate = append(toCreate, &integration.SyncState{
				SKU:          sku,
				Fingerprint:  c.fingerprint,
				LastSyncedAt: now,
			})
		}

		stats.Synced++
		log.Info("Synced product",
			zap.String("sku", sku),
			zap.Bool("updated", isUpdate),
		)
	}

	// Two bulk writes instead of N.
	if len(toCreate) > 0 {
		if err := o.store.BulkCreate(ctx, toCreate); err != nil {
			return nil, fmt.Errorf("bulk create sync states: %w", err)
		}
	}
	if len(toUpdate) > 0 {
		if err := o.store.BulkUpdate(ctx, toUpdate); err != nil {
			return nil, fmt.Errorf("bulk update sync states: %w", err)
		}
	}

	log.Info("Sync complete",
		zap.Int("synced", stats.Synced),
		zap.Int("skipped_unchanged", stats.SkippedUnchanged),
		zap.Int("skipped_invalid", stats.SkippedInvalid),
		zap.Int("errors", stats.Errors),
	)
	return stats, nil
}
