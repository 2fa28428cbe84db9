package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransferReceipt is returned for every committed transfer.
// TransactionID is a correlation token only; nothing is persisted under it.
type TransferReceipt struct {
	CommittedAt   time.Time
	TransactionID string
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
}

// TransferDescription is the human readable text sent to both account holders.
func TransferDescription(amount decimal.Decimal, fromID, toID string) string {
	return fmt.Sprintf("Amount=%s transferred FromAccountId=%s, ToAccountId=%s", amount, fromID, toID)
}
