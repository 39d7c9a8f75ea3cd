package repository

import (
	"context"

	"social-reward-engine/domain/model"
)

type IUserWallet interface {
	Get(ctx context.Context, twitterID, network string) (*model.UserWallet, error)
	List(ctx context.Context, twitterID string) ([]model.UserWallet, error)
	Upsert(ctx context.Context, twitterID, network, address string) (*model.UserWallet, error)
}

// IWalletLookup resolves a payout address from a remote registry.
type IWalletLookup interface {
	GetWallet(ctx context.Context, twitterID, network string) (string, error)
}
