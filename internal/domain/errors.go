package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrDuplicateAccountID = errors.New("account id already exists")
	ErrInvalidAccountID   = errors.New("invalid account id")
	ErrNegativeBalance    = errors.New("balance must not be negative")

	// Transfer errors
	ErrInvalidAmount     = errors.New("transfer amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrLockTimeout       = errors.New("timed out waiting for account lock")
)

// AccountNotFoundError reports which side of a transfer could not be resolved.
type AccountNotFoundError struct {
	FromID      string
	ToID        string
	FromMissing bool
	ToMissing   bool
}

func (e *AccountNotFoundError) Error() string {
	var parts []string
	if e.FromMissing {
		parts = append(parts, "accountFrom="+e.FromID)
	}
	if e.ToMissing {
		parts = append(parts, "accountTo="+e.ToID)
	}
	return fmt.Sprintf("%s: %s", ErrAccountNotFound, strings.Join(parts, " "))
}

// Is reports ErrAccountNotFound as the error kind.
func (e *AccountNotFoundError) Is(target error) bool {
	return target == ErrAccountNotFound
}

// Missing returns the ids that were not found.
func (e *AccountNotFoundError) Missing() []string {
	var ids []string
	if e.FromMissing {
		ids = append(ids, e.FromID)
	}
	if e.ToMissing {
		ids = append(ids, e.ToID)
	}
	return ids
}

// InsufficientFundsError is returned when the source balance is below the requested amount.
type InsufficientFundsError struct {
	AccountID string
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: account=%s, balance=%s, transfer=%s",
		ErrInsufficientFunds, e.AccountID, e.Balance, e.Requested)
}

// Is reports ErrInsufficientFunds as the error kind.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// DuplicateAccountIDError is returned when creating an account whose id is taken.
type DuplicateAccountIDError struct {
	AccountID string
}

func (e *DuplicateAccountIDError) Error() string {
	return fmt.Sprintf("account id %s already exists", e.AccountID)
}

// Is reports ErrDuplicateAccountID as the error kind.
func (e *DuplicateAccountIDError) Is(target error) bool {
	return target == ErrDuplicateAccountID
}
