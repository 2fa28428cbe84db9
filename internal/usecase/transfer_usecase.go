package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/domain"
)

// TransferUseCase moves money between two accounts.
type TransferUseCase struct {
	accounts    AccountStore
	notifier    NotificationService
	idGen       IDGenerator
	metrics     MetricsRecorder
	logger      zerolog.Logger
	lockTimeout time.Duration
}

// TransferOption configures a TransferUseCase.
type TransferOption func(*TransferUseCase)

// WithLockTimeout bounds the wait for both account locks. Zero waits forever.
func WithLockTimeout(timeout time.Duration) TransferOption {
	return func(uc *TransferUseCase) {
		uc.lockTimeout = timeout
	}
}

// WithMetrics sets the recorder for transfer outcomes.
func WithMetrics(metrics MetricsRecorder) TransferOption {
	return func(uc *TransferUseCase) {
		if metrics != nil {
			uc.metrics = metrics
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) TransferOption {
	return func(uc *TransferUseCase) {
		uc.logger = logger
	}
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	accounts AccountStore,
	notifier NotificationService,
	idGen IDGenerator,
	opts ...TransferOption,
) *TransferUseCase {
	uc := &TransferUseCase{
		accounts:    accounts,
		notifier:    notifier,
		idGen:       idGen,
		metrics:     noopMetrics{},
		logger:      zerolog.Nop(),
		lockTimeout: DefaultLockTimeout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// TransferInput represents input for a transfer.
type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.NullDecimal
}

// Transfer moves input.Amount from the source to the destination account.
//
// The request is either committed, in which case both holders are notified
// and a receipt is returned, or rejected with no balance changed.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.TransferReceipt, error) {
	start := time.Now()

	receipt, err := uc.transfer(ctx, input)
	if err != nil {
		uc.metrics.TransferRejected(RejectionReason(err))
		uc.logger.Info().
			Err(err).
			Str("from_account_id", input.FromAccountID).
			Str("to_account_id", input.ToAccountID).
			Msg("transfer rejected")

		return nil, err
	}

	uc.metrics.TransferCommitted(receipt.Amount, time.Since(start))
	uc.logger.Debug().
		Str("transaction_id", receipt.TransactionID).
		Str("from_account_id", receipt.FromAccountID).
		Str("to_account_id", receipt.ToAccountID).
		Str("amount", receipt.Amount.String()).
		Msg("transfer committed")

	return receipt, nil
}

func (uc *TransferUseCase) transfer(ctx context.Context, input TransferInput) (*domain.TransferReceipt, error) {
	// 1. Validate amount before looking at any account
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	amount := input.Amount.Decimal

	// 2. Resolve both sides
	from, to, err := uc.resolveAccounts(ctx, input.FromAccountID, input.ToAccountID)
	if err != nil {
		return nil, err
	}

	// 3. Lock in deterministic order (DEADLOCK PREVENTION)
	lockStart := time.Now()
	unlock, err := lockPair(ctx, uc.lockTimeout, from, to)
	uc.metrics.LockWaited(time.Since(lockStart))
	if err != nil {
		return nil, err
	}

	// 4. Check and mutate while both locks are held
	if err := from.ValidateDebit(amount); err != nil {
		unlock()
		return nil, err
	}

	from.DebitLocked(amount)
	to.CreditLocked(amount)
	unlock()

	receipt := &domain.TransferReceipt{
		TransactionID: uc.idGen.Generate(),
		FromAccountID: from.ID(),
		ToAccountID:   to.ID(),
		Amount:        amount,
		CommittedAt:   time.Now().UTC(),
	}

	// 5. Notify both holders outside the critical section
	description := domain.TransferDescription(amount, from.ID(), to.ID())
	uc.notifier.NotifyAboutTransfer(from, description)
	uc.notifier.NotifyAboutTransfer(to, description)

	return receipt, nil
}

// resolveAccounts looks up both accounts and names every missing side.
func (uc *TransferUseCase) resolveAccounts(ctx context.Context, fromID, toID string) (*domain.Account, *domain.Account, error) {
	from, err := uc.lookup(ctx, fromID)
	if err != nil {
		return nil, nil, err
	}

	to, err := uc.lookup(ctx, toID)
	if err != nil {
		return nil, nil, err
	}

	if from == nil || to == nil {
		return nil, nil, &domain.AccountNotFoundError{
			FromID:      fromID,
			ToID:        toID,
			FromMissing: from == nil,
			ToMissing:   to == nil,
		}
	}

	return from, to, nil
}

// lookup returns nil without error when the account does not exist.
func (uc *TransferUseCase) lookup(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accounts.GetAccount(ctx, id)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return account, nil
}

// RejectionReason classifies a transfer error for metrics.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return ReasonInvalidAmount
	case errors.Is(err, domain.ErrAccountNotFound):
		return ReasonAccountNotFound
	case errors.Is(err, domain.ErrInsufficientFunds):
		return ReasonInsufficientFunds
	case errors.Is(err, domain.ErrLockTimeout):
		return ReasonLockTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	default:
		return ReasonInternal
	}
}
