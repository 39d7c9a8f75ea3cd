package model

import "time"

const (
	PayoutPending    = "pending"
	PayoutProcessing = "processing"
	PayoutCompleted  = "completed"
	PayoutFailed     = "failed"
)

// PayoutRecord is one settlement attempt for a post.
type PayoutRecord struct {
	ID               string    `json:"id" bson:"_id,omitempty"`
	TweetID          string    `json:"tweetId" bson:"tweetId"`
	AuthorID         string    `json:"authorId" bson:"authorId"`
	RecipientAddress *string   `json:"recipientAddress,omitempty" bson:"recipientAddress,omitempty"`
	Amount           float64   `json:"amount" bson:"amount"`
	Token            string    `json:"token" bson:"token"`
	Network          string    `json:"network" bson:"network"`
	Status           string    `json:"status" bson:"status"`
	TxHash           *string   `json:"txHash,omitempty" bson:"txHash,omitempty"`
	Error            *string   `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PayoutStats summarizes the payouts collection.
type PayoutStats struct {
	Total      int64   `json:"total"`
	Pending    int64   `json:"pending"`
	Processing int64   `json:"processing"`
	Completed  int64   `json:"completed"`
	Failed     int64   `json:"failed"`
	TotalPaid  float64 `json:"totalPaid"`
	Token      string  `json:"token"`
	Network    string  `json:"network"`
}
