package usecase

import "time"

const (
	// DefaultLoadTimeout bounds a ledger fetch when the caller sets no deadline.
	DefaultLoadTimeout = 10 * time.Second

	// DefaultReportCacheTTL is how long computed reports stay cached.
	DefaultReportCacheTTL = 5 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyPending marks a key whose first request is still in flight.
	IdempotencyPending = "processing"
)

// Load outcomes reported to Recorder.LedgerLoaded.
const (
	LoadOutcomeOK          = "ok"
	LoadOutcomeUnavailable = "unavailable"
	LoadOutcomeSuperseded  = "superseded"
	LoadOutcomeInvalid     = "invalid"
)
