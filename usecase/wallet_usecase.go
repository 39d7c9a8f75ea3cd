package usecase

import (
	"context"
	"fmt"
	"strings"

	"social-reward-engine/domain/model"
	"social-reward-engine/domain/repository"
	"social-reward-engine/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
)

type IWalletUsecase interface {
	GetWallet(ctx context.Context, twitterID, network string) (*model.UserWallet, error)
	ListWallets(ctx context.Context, twitterID string) ([]model.UserWallet, error)
	SetWallet(ctx context.Context, twitterID, address, network string) (*model.UserWallet, error)
}

type walletUsecase struct {
	wallets       repository.IUserWallet
	posts         repository.IPost
	payoutNetwork string
}

func NewWalletUsecase(wallets repository.IUserWallet, posts repository.IPost, payoutNetwork string) IWalletUsecase {
	return &walletUsecase{wallets: wallets, posts: posts, payoutNetwork: payoutNetwork}
}

func (u *walletUsecase) GetWallet(ctx context.Context, twitterID, network string) (*model.UserWallet, error) {
	if network == "" {
		network = u.payoutNetwork
	}
	return u.wallets.Get(ctx, twitterID, network)
}

func (u *walletUsecase) ListWallets(ctx context.Context, twitterID string) ([]model.UserWallet, error) {
	list, err := u.wallets.List(ctx, twitterID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.UserWallet{}
	}
	return list, nil
}

// SetWallet links an address and copies it onto the author's posts that do
// not carry one yet, when it is for the payout network.
func (u *walletUsecase) SetWallet(ctx context.Context, twitterID, address, network string) (*model.UserWallet, error) {
	if network == "" {
		network = u.payoutNetwork
	}
	network = strings.ToLower(network)
	address = strings.TrimSpace(address)
	if twitterID == "" {
		return nil, fmt.Errorf("%w: twitter id required", model.ErrInvalidWallet)
	}
	if err := ValidateWalletAddress(address, network); err != nil {
		return nil, err
	}
	if network != model.NetworkSolana {
		address = common.HexToAddress(address).Hex()
	}

	wallet, err := u.wallets.Upsert(ctx, twitterID, network, address)
	if err != nil {
		return nil, fmt.Errorf("save wallet: %w", err)
	}
	if network == u.payoutNetwork {
		n, err := u.posts.BackfillWallet(ctx, twitterID, address)
		if err != nil {
			logger.GetLogger().WithField("twitter_id", twitterID).WithField("error", err.Error()).Warn("wallet backfill failed")
		} else if n > 0 {
			logger.GetLogger().WithField("twitter_id", twitterID).WithField("posts", n).Info("wallet backfilled onto posts")
		}
	}
	return wallet, nil
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// ValidateWalletAddress checks the address shape for the network.
func ValidateWalletAddress(address, network string) error {
	switch network {
	case model.NetworkBase, model.NetworkBSC:
		if !common.IsHexAddress(address) {
			return fmt.Errorf("%w: %q is not an EVM address", model.ErrInvalidWallet, address)
		}
		if common.HexToAddress(address) == (common.Address{}) {
			return fmt.Errorf("%w: zero address", model.ErrInvalidWallet)
		}
	case model.NetworkSolana:
		if len(address) < 32 || len(address) > 44 {
			return fmt.Errorf("%w: %q is not a solana address", model.ErrInvalidWallet, address)
		}
		for _, r := range address {
			if !strings.ContainsRune(base58Alphabet, r) {
				return fmt.Errorf("%w: %q is not a solana address", model.ErrInvalidWallet, address)
			}
		}
	default:
		return fmt.Errorf("%w: %s", model.ErrUnsupportedNetwork, network)
	}
	return nil
}
