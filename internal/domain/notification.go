package domain

import "time"

// Notification is a message for a single account holder about a transfer.
type Notification struct {
	CreatedAt   time.Time `json:"created_at"`
	AccountID   string    `json:"account_id"`
	Description string    `json:"description"`
}
