package dto

import (
	"time"

	"social-reward-engine/domain/model"
)

// PayoutEvent is the message published when a payout record changes status.
type PayoutEvent struct {
	Type       string    `json:"type"`
	PayoutID   string    `json:"payoutId"`
	TweetID    string    `json:"tweetId"`
	AuthorID   string    `json:"authorId"`
	Amount     float64   `json:"amount"`
	Token      string    `json:"token"`
	Network    string    `json:"network"`
	Status     string    `json:"status"`
	TxHash     string    `json:"txHash,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewPayoutEvent(rec *model.PayoutRecord) PayoutEvent {
	ev := PayoutEvent{
		Type:       "payout." + rec.Status,
		PayoutID:   rec.ID,
		TweetID:    rec.TweetID,
		AuthorID:   rec.AuthorID,
		Amount:     rec.Amount,
		Token:      rec.Token,
		Network:    rec.Network,
		Status:     rec.Status,
		OccurredAt: rec.UpdatedAt,
	}
	if rec.TxHash != nil {
		ev.TxHash = *rec.TxHash
	}
	if rec.Error != nil {
		ev.Error = *rec.Error
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	return ev
}
