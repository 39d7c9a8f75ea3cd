package model

import "time"

// PaymentLog is an append-only audit entry for one settlement outcome.
type PaymentLog struct {
	ID               int64     `json:"id"`
	Type             string    `json:"type"`
	TwitterID        string    `json:"twitterId"`
	RecipientAddress *string   `json:"recipientAddress,omitempty"`
	TxHash           *string   `json:"txHash,omitempty"`
	Amount           string    `json:"amount"`
	Network          string    `json:"network"`
	Success          bool      `json:"success"`
	Error            *string   `json:"error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}
