package usecase

import "time"

const (
	// DefaultLockTimeout bounds how long a caller waits for account locks.
	DefaultLockTimeout = 5 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)

// Rejection reasons reported to MetricsRecorder.
const (
	ReasonInvalidAmount     = "invalid_amount"
	ReasonAccountNotFound   = "account_not_found"
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonLockTimeout       = "lock_timeout"
	ReasonCanceled          = "canceled"
	ReasonInternal          = "internal"
)
