package integration

import "errors"

var (
	// Source errors. A run cannot proceed without source data, so these
	// propagate out of the orchestrator and abort the run.
	ErrSourceUnavailable = errors.New("integration: source unavailable")
	ErrSourceInvalidData = errors.New("integration: source data malformed")

	// Dispatch errors. These are per-record: the orchestrator counts them
	// and continues with the next record.
	ErrRateLimitExhausted = errors.New("integration: rate limit exhausted")
	ErrRequestFailed      = errors.New("integration: e-shop request failed")
	ErrEshopUnreachable   = errors.New("integration: e-shop unreachable")
)
