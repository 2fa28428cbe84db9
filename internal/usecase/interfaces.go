package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/domain"
)

// AccountStore holds accounts keyed by id. Implementations must be safe for
// concurrent use; lookups never touch account balances.
type AccountStore interface {
	// CreateAccount stores the account unless its id is taken, in which case
	// it fails with domain.ErrDuplicateAccountID.
	CreateAccount(ctx context.Context, account *domain.Account) error
	// GetAccount returns the account or domain.ErrAccountNotFound.
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
}

// NotificationService accepts best-effort transfer notifications.
// NotifyAboutTransfer must not block and has no observable outcome.
type NotificationService interface {
	NotifyAboutTransfer(account *domain.Account, description string)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// MetricsRecorder observes transfer outcomes.
type MetricsRecorder interface {
	TransferCommitted(amount decimal.Decimal, duration time.Duration)
	TransferRejected(reason string)
	LockWaited(duration time.Duration)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release removes a key so the request can be retried.
	Release(ctx context.Context, key string) error
}

// AccountMetrics observes account creation.
type AccountMetrics interface {
	AccountCreated()
}

type noopMetrics struct{}

func (noopMetrics) TransferCommitted(decimal.Decimal, time.Duration) {}
func (noopMetrics) TransferRejected(string)                          {}
func (noopMetrics) LockWaited(time.Duration)                         {}
func (noopMetrics) AccountCreated()                                  {}
