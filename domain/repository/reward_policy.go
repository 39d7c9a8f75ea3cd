package repository

import (
	"context"

	"social-reward-engine/domain/model"
)

type IRewardPolicy interface {
	// GetOrCreate returns the stored policy, inserting defaults on first read.
	GetOrCreate(ctx context.Context, defaults model.RewardPolicy) (*model.RewardPolicy, error)
	Update(ctx context.Context, update model.RewardPolicyUpdate) (*model.RewardPolicy, error)
}

// IRewardPolicyCache is a shared cache in front of IRewardPolicy.
type IRewardPolicyCache interface {
	Get(ctx context.Context) (*model.RewardPolicy, bool)
	Set(ctx context.Context, policy *model.RewardPolicy)
	Invalidate(ctx context.Context)
}
