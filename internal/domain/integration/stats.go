package integration

import "github.com/google/uuid"

// RunStats are the ephemeral counters of a single sync run. They are
// returned at run end and never persisted.
type RunStats struct {
	RunID            uuid.UUID `json:"run_id"`
	Synced           int       `json:"synced"`
	SkippedUnchanged int       `json:"skipped_unchanged"`
	SkippedInvalid   int       `json:"skipped_invalid"`
	Errors           int       `json:"errors"`
}

// NewRunStats creates zeroed statistics tagged with a fresh run ID.
func NewRunStats() *RunStats {
	return &RunStats{RunID: uuid.New()}
}
