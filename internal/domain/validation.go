package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAccountIDLength bounds account identifiers.
const MaxAccountIDLength = 255

// ValidateAccountID validates an account identifier.
func ValidateAccountID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidAccountID)
	}

	if len(id) > MaxAccountIDLength {
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidAccountID, MaxAccountIDLength)
	}

	return nil
}

// ValidateAmount validates a transfer amount: it must be present and strictly positive.
func ValidateAmount(amount decimal.NullDecimal) error {
	if !amount.Valid || amount.Decimal.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateOpeningBalance validates the balance an account is created with.
func ValidateOpeningBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeBalance, balance)
	}
	return nil
}
