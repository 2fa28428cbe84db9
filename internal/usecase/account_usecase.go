package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accounts    AccountStore
	metrics     AccountMetrics
	lockTimeout time.Duration
}

// AccountOption configures an AccountUseCase.
type AccountOption func(*AccountUseCase)

// WithAccountMetrics sets the recorder for created accounts.
func WithAccountMetrics(metrics AccountMetrics) AccountOption {
	return func(uc *AccountUseCase) {
		if metrics != nil {
			uc.metrics = metrics
		}
	}
}

// NewAccountUseCase creates a new AccountUseCase. lockTimeout bounds balance
// reads that have to wait for an in-flight transfer; zero waits forever.
func NewAccountUseCase(accounts AccountStore, lockTimeout time.Duration, opts ...AccountOption) *AccountUseCase {
	uc := &AccountUseCase{
		accounts:    accounts,
		metrics:     noopMetrics{},
		lockTimeout: lockTimeout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	AccountID string
	Balance   decimal.Decimal
}

// CreateAccount creates a new account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.AccountSnapshot, error) {
	if err := domain.ValidateAccountID(input.AccountID); err != nil {
		return nil, err
	}

	if err := domain.ValidateOpeningBalance(input.Balance); err != nil {
		return nil, err
	}

	account := domain.NewAccount(input.AccountID, input.Balance)
	snapshot := &domain.AccountSnapshot{
		ID:        account.ID(),
		Balance:   input.Balance,
		CreatedAt: account.CreatedAt(),
	}

	if err := uc.accounts.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	uc.metrics.AccountCreated()

	return snapshot, nil
}

// GetAccount returns a consistent copy of the account.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.AccountSnapshot, error) {
	account, err := uc.accounts.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := lockAccount(ctx, uc.lockTimeout, account); err != nil {
		return nil, err
	}
	defer account.Unlock()

	return &domain.AccountSnapshot{
		ID:        account.ID(),
		Balance:   account.BalanceLocked(),
		CreatedAt: account.CreatedAt(),
	}, nil
}

// GetBalance returns the account balance, read under the account lock.
func (uc *AccountUseCase) GetBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	snapshot, err := uc.GetAccount(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	return snapshot.Balance, nil
}
