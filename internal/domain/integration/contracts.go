package integration

import "context"

// Source loads raw product records from an ERP system. Implementations are
// selected at process start via configuration; a failed load aborts the
// whole run.
type Source interface {
	Load(ctx context.Context) ([]RawRecord, error)
}

// SendResult is the successful outcome of a dispatch, including how many
// HTTP requests it took (retries included).
type SendResult struct {
	StatusCode int
	Attempts   int
}

// Session is a per-run dispatch channel with authentication already
// established. Send delivers one payload: a create when isUpdate is false,
// an update keyed by SKU when true. Failures are typed via the sentinel
// errors in this package (ErrRateLimitExhausted, ErrRequestFailed,
// ErrEshopUnreachable).
type Session interface {
	Send(ctx context.Context, payload Payload, isUpdate bool) (*SendResult, error)
}

// Dispatcher opens sessions against the remote e-shop API. Auth headers are
// established once per session, not per request.
type Dispatcher interface {
	NewSession(ctx context.Context) (Session, error)
}
