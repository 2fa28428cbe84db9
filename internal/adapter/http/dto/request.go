package dto

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/domain"
	"github.com/iho/gotransfer/internal/usecase"
)

// ErrMissingField is returned when a required request field is empty.
var ErrMissingField = errors.New("missing required field")

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	AccountID string              `json:"accountId"`
	Balance   decimal.NullDecimal `json:"balance"`
}

// ToUseCaseInput converts to use case input. A missing balance opens the
// account empty.
func (r *CreateAccountRequest) ToUseCaseInput() (usecase.CreateAccountInput, error) {
	if r.AccountID == "" {
		return usecase.CreateAccountInput{}, fmt.Errorf("%w: accountId", ErrMissingField)
	}

	balance := decimal.Zero
	if r.Balance.Valid {
		balance = r.Balance.Decimal
	}

	return usecase.CreateAccountInput{
		AccountID: r.AccountID,
		Balance:   balance,
	}, nil
}

// TransferRequest represents a request to move money between two accounts.
type TransferRequest struct {
	AccountFromID string              `json:"accountFromId"`
	AccountToID   string              `json:"accountToId"`
	Amount        decimal.NullDecimal `json:"amount"`
}

// ToUseCaseInput validates the payload and converts it to use case input.
// Zero passes here; the use case rejects it.
func (r *TransferRequest) ToUseCaseInput() (usecase.TransferInput, error) {
	if r.AccountFromID == "" {
		return usecase.TransferInput{}, fmt.Errorf("%w: accountFromId", ErrMissingField)
	}
	if r.AccountToID == "" {
		return usecase.TransferInput{}, fmt.Errorf("%w: accountToId", ErrMissingField)
	}
	if !r.Amount.Valid {
		return usecase.TransferInput{}, fmt.Errorf("%w: amount", ErrMissingField)
	}
	if r.Amount.Decimal.IsNegative() {
		return usecase.TransferInput{}, fmt.Errorf("%w: amount must not be negative", domain.ErrInvalidAmount)
	}

	return usecase.TransferInput{
		FromAccountID: r.AccountFromID,
		ToAccountID:   r.AccountToID,
		Amount:        r.Amount,
	}, nil
}
