package dto

import "social-reward-engine/domain/model"

type PayoutHistoryRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (r *PayoutHistoryRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = 20
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
}

type PayoutHistoryResponse struct {
	Payouts    []model.PayoutRecord `json:"payouts"`
	Pagination Pagination           `json:"pagination"`
}

// Claim status values returned to the public claim page.
const (
	ClaimNotFound     = "not_found"
	ClaimClaimed      = "claimed"
	ClaimPendingScore = "pending_score"
	ClaimIneligible   = "ineligible"
	ClaimClaimable    = "claimable"
)

type ClaimStatusResponse struct {
	TweetID      string   `json:"tweetId"`
	Status       string   `json:"status"`
	Amount       *float64 `json:"amount,omitempty"`
	TxHash       *string  `json:"txHash,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	QualityScore *float64 `json:"qualityScore,omitempty"`
	AILikelihood *float64 `json:"aiLikelihood,omitempty"`
}

type ClaimResponse struct {
	Success        bool    `json:"success"`
	AlreadyClaimed bool    `json:"alreadyClaimed,omitempty"`
	TxHash         string  `json:"txHash,omitempty"`
	Amount         float64 `json:"amount,omitempty"`
	Network        string  `json:"network,omitempty"`
	Message        string  `json:"message,omitempty"`
}

type SetWalletRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	Network       string `json:"network"`
}
