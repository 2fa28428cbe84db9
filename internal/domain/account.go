package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"
)

// Account represents a ledger account that holds a non-negative balance.
//
// The balance is guarded by a lock owned by the account. Outside a transfer it
// must be read through Balance; code that already holds the lock uses the
// *Locked methods.
type Account struct {
	id        string
	createdAt time.Time

	lock    *semaphore.Weighted
	balance decimal.Decimal
}

// NewAccount creates an account with the given id and opening balance.
func NewAccount(id string, balance decimal.Decimal) *Account {
	return &Account{
		id:        id,
		createdAt: time.Now().UTC(),
		lock:      semaphore.NewWeighted(1),
		balance:   balance,
	}
}

// ID returns the account identifier.
func (a *Account) ID() string {
	return a.id
}

// CreatedAt returns when the account was created.
func (a *Account) CreatedAt() time.Time {
	return a.createdAt
}

// Lock blocks until the account lock is held or ctx is done.
// The lock is not reentrant.
func (a *Account) Lock(ctx context.Context) error {
	return a.lock.Acquire(ctx, 1)
}

// Unlock releases the account lock.
func (a *Account) Unlock() {
	a.lock.Release(1)
}

// Balance returns the current balance, read under the account lock.
func (a *Account) Balance(ctx context.Context) (decimal.Decimal, error) {
	if err := a.Lock(ctx); err != nil {
		return decimal.Zero, err
	}
	defer a.Unlock()

	return a.balance, nil
}

// BalanceLocked returns the balance. The caller must hold the lock.
func (a *Account) BalanceLocked() decimal.Decimal {
	return a.balance
}

// ValidateDebit checks if the account can be debited by amount.
// The caller must hold the lock.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.balance.LessThan(amount) {
		return &InsufficientFundsError{
			AccountID: a.id,
			Balance:   a.balance,
			Requested: amount,
		}
	}
	return nil
}

// DebitLocked subtracts amount from the balance. The caller must hold the lock.
func (a *Account) DebitLocked(amount decimal.Decimal) {
	a.balance = a.balance.Sub(amount)
}

// CreditLocked adds amount to the balance. The caller must hold the lock.
func (a *Account) CreditLocked(amount decimal.Decimal) {
	a.balance = a.balance.Add(amount)
}

// AccountSnapshot is a point-in-time copy of an account.
type AccountSnapshot struct {
	CreatedAt time.Time
	ID        string
	Balance   decimal.Decimal
}
