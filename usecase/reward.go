package usecase

import (
	"fmt"

	"social-reward-engine/domain/model"

	"github.com/shopspring/decimal"
)

// IsEligible reports whether a scored post clears the policy gate. Both
// scores must be known; callers holding optional scores use
// IsDisplayEligible instead.
func IsEligible(quality, aiLikelihood float64, policy model.RewardPolicy) bool {
	return quality >= policy.MinQualityScore && aiLikelihood <= policy.MaxAILikelihood
}

// IsDisplayEligible is the read-side variant used by status pages: an
// unknown AI likelihood is treated as passing, an unknown quality never is.
func IsDisplayEligible(quality, aiLikelihood *float64, policy model.RewardPolicy) bool {
	if quality == nil {
		return false
	}
	if aiLikelihood == nil {
		return *quality >= policy.MinQualityScore
	}
	return IsEligible(*quality, *aiLikelihood, policy)
}

// IneligibleReason explains the first failing threshold, or "" when eligible.
func IneligibleReason(quality, aiLikelihood float64, policy model.RewardPolicy) string {
	if quality < policy.MinQualityScore {
		return fmt.Sprintf("Quality score %s below minimum %s", formatScore(quality), formatScore(policy.MinQualityScore))
	}
	if aiLikelihood > policy.MaxAILikelihood {
		return fmt.Sprintf("AI likelihood %s exceeds maximum %s", formatScore(aiLikelihood), formatScore(policy.MaxAILikelihood))
	}
	return ""
}

// RewardAmount scales the base amount between base*minMultiplier (quality 0)
// and base (quality 100), rounded half-up to cents.
func RewardAmount(quality float64, policy model.RewardPolicy) float64 {
	return RewardAmountDecimal(quality, policy).InexactFloat64()
}

func RewardAmountDecimal(quality float64, policy model.RewardPolicy) decimal.Decimal {
	q := decimal.NewFromFloat(clamp(quality, 0, 100))
	minMult := decimal.NewFromFloat(clamp(policy.MinMultiplier, 0, 1))
	base := decimal.NewFromFloat(policy.BaseAmount)

	multiplier := minMult.Add(q.Div(decimal.NewFromInt(100)).Mul(decimal.NewFromInt(1).Sub(minMult)))
	return base.Mul(multiplier).Round(2)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func formatScore(v float64) string {
	return decimal.NewFromFloat(v).String()
}
