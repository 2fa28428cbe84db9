package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/domain"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	AccountID string          `json:"accountId"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
}

// AccountFromDomain converts an account snapshot to a response.
func AccountFromDomain(a *domain.AccountSnapshot) *AccountResponse {
	return &AccountResponse{
		AccountID: a.ID,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
	}
}

// TransferResponse carries the correlation id of a committed transfer.
type TransferResponse struct {
	TransactionID string `json:"transactionId"`
}

// TransferFromDomain converts a receipt to a response.
func TransferFromDomain(r *domain.TransferReceipt) *TransferResponse {
	return &TransferResponse{TransactionID: r.TransactionID}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
