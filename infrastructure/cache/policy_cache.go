package cache

import (
	"context"
	"encoding/json"
	"time"

	"social-reward-engine/domain/model"
	"social-reward-engine/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

const policyCacheKey = "sre:config:reward"

// PolicyCache shares the reward policy between replicas. Redis failures are
// logged and treated as a miss so the store stays the source of truth.
type PolicyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPolicyCache(client *redis.Client, ttl time.Duration) *PolicyCache {
	return &PolicyCache{client: client, ttl: ttl}
}

func (c *PolicyCache) Get(ctx context.Context) (*model.RewardPolicy, bool) {
	raw, err := c.client.Get(ctx, policyCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.GetLogger().WithField("error", err).Warn("reward policy cache read failed")
		}
		return nil, false
	}
	var policy model.RewardPolicy
	if err := json.Unmarshal(raw, &policy); err != nil {
		logger.GetLogger().WithField("error", err).Warn("discarding malformed cached reward policy")
		return nil, false
	}
	return &policy, true
}

func (c *PolicyCache) Set(ctx context.Context, policy *model.RewardPolicy) {
	raw, err := json.Marshal(policy)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, policyCacheKey, raw, c.ttl).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("reward policy cache write failed")
	}
}

func (c *PolicyCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, policyCacheKey).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("reward policy cache invalidation failed")
	}
}
