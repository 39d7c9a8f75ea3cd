package model

import "time"

const RewardPolicyKey = "reward"

// RewardPolicy is the mutable eligibility gate and amount formula input.
type RewardPolicy struct {
	MinQualityScore float64   `json:"minQualityScore" bson:"minQualityScore"`
	MaxAILikelihood float64   `json:"maxAiLikelihood" bson:"maxAiLikelihood"`
	BaseAmount      float64   `json:"baseAmount" bson:"baseAmount"`
	Token           string    `json:"token" bson:"token"`
	MinMultiplier   float64   `json:"minMultiplier" bson:"minMultiplier"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

func DefaultRewardPolicy() RewardPolicy {
	return RewardPolicy{
		MinQualityScore: 80,
		MaxAILikelihood: 30,
		BaseAmount:      1.0,
		Token:           "USDC",
		MinMultiplier:   0.5,
	}
}

// RewardPolicyUpdate carries the fields an operator may change. Nil means keep.
type RewardPolicyUpdate struct {
	MinQualityScore *float64 `json:"minQualityScore"`
	MaxAILikelihood *float64 `json:"maxAiLikelihood"`
	BaseAmount      *float64 `json:"baseAmount"`
	Token           *string  `json:"token"`
	MinMultiplier   *float64 `json:"minMultiplier"`
}
