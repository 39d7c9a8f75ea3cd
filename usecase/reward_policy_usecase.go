package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"social-reward-engine/domain/model"
	"social-reward-engine/domain/repository"
	"social-reward-engine/infrastructure/logger"
)

type IRewardPolicyUsecase interface {
	Get(ctx context.Context) (model.RewardPolicy, error)
	Update(ctx context.Context, update model.RewardPolicyUpdate) (model.RewardPolicy, error)
}

// rewardPolicyUsecase keeps the policy in a local cache cell backed by an
// optional shared cache and the store. Writes invalidate both caches. The
// local cell expires after ttl so replicas converge after another replica
// writes.
type rewardPolicyUsecase struct {
	repo   repository.IRewardPolicy
	shared repository.IRewardPolicyCache
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	cached   *model.RewardPolicy
	cachedAt time.Time
}

func NewRewardPolicyUsecase(repo repository.IRewardPolicy, shared repository.IRewardPolicyCache, ttl time.Duration) IRewardPolicyUsecase {
	return &rewardPolicyUsecase{repo: repo, shared: shared, ttl: ttl, now: time.Now}
}

func (u *rewardPolicyUsecase) Get(ctx context.Context) (model.RewardPolicy, error) {
	if p, ok := u.local(); ok {
		return p, nil
	}
	if u.shared != nil {
		if p, ok := u.shared.Get(ctx); ok {
			u.store(p)
			return *p, nil
		}
	}
	p, err := u.repo.GetOrCreate(ctx, model.DefaultRewardPolicy())
	if err != nil {
		return model.RewardPolicy{}, fmt.Errorf("load reward policy: %w", err)
	}
	u.store(p)
	if u.shared != nil {
		u.shared.Set(ctx, p)
	}
	return *p, nil
}

func (u *rewardPolicyUsecase) Update(ctx context.Context, update model.RewardPolicyUpdate) (model.RewardPolicy, error) {
	if err := validatePolicyUpdate(update); err != nil {
		return model.RewardPolicy{}, err
	}
	// Make sure the document exists before a partial $set.
	if _, err := u.repo.GetOrCreate(ctx, model.DefaultRewardPolicy()); err != nil {
		return model.RewardPolicy{}, fmt.Errorf("load reward policy: %w", err)
	}
	p, err := u.repo.Update(ctx, update)
	if err != nil {
		return model.RewardPolicy{}, fmt.Errorf("update reward policy: %w", err)
	}
	u.invalidate(ctx)
	logger.GetLogger().WithField("policy", p).Info("reward policy updated")
	return *p, nil
}

func (u *rewardPolicyUsecase) local() (model.RewardPolicy, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.cached == nil {
		return model.RewardPolicy{}, false
	}
	if u.ttl > 0 && u.now().Sub(u.cachedAt) > u.ttl {
		return model.RewardPolicy{}, false
	}
	return *u.cached, true
}

func (u *rewardPolicyUsecase) store(p *model.RewardPolicy) {
	cp := *p
	u.mu.Lock()
	u.cached = &cp
	u.cachedAt = u.now()
	u.mu.Unlock()
}

func (u *rewardPolicyUsecase) invalidate(ctx context.Context) {
	u.mu.Lock()
	u.cached = nil
	u.mu.Unlock()
	if u.shared != nil {
		u.shared.Invalidate(ctx)
	}
}

func validatePolicyUpdate(update model.RewardPolicyUpdate) error {
	inRange := func(v *float64, lo, hi float64) bool { return v == nil || (*v >= lo && *v <= hi) }
	switch {
	case !inRange(update.MinQualityScore, 0, 100):
		return fmt.Errorf("%w: minQualityScore must be within [0,100]", model.ErrInvalidPolicy)
	case !inRange(update.MaxAILikelihood, 0, 100):
		return fmt.Errorf("%w: maxAiLikelihood must be within [0,100]", model.ErrInvalidPolicy)
	case !inRange(update.MinMultiplier, 0, 1):
		return fmt.Errorf("%w: minMultiplier must be within [0,1]", model.ErrInvalidPolicy)
	case update.BaseAmount != nil && *update.BaseAmount <= 0:
		return fmt.Errorf("%w: baseAmount must be positive", model.ErrInvalidPolicy)
	case update.Token != nil && strings.TrimSpace(*update.Token) == "":
		return fmt.Errorf("%w: token must not be empty", model.ErrInvalidPolicy)
	}
	return nil
}
