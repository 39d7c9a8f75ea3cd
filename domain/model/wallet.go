package model

import "time"

const (
	NetworkBase   = "base"
	NetworkBSC    = "bsc"
	NetworkSolana = "solana"
)

// UserWallet links an author to a payout address on one network.
type UserWallet struct {
	TwitterID     string    `json:"twitterId" bson:"twitterId"`
	WalletAddress string    `json:"walletAddress" bson:"walletAddress"`
	Network       string    `json:"network" bson:"network"`
	IsPrimary     bool      `json:"isPrimary" bson:"isPrimary"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}
