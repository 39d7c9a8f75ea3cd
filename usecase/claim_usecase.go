package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/domain/repository"
)

// IClaimUsecase backs the public claim page.
type IClaimUsecase interface {
	Status(ctx context.Context, tweetID string) (*dto.ClaimStatusResponse, error)
	Claim(ctx context.Context, tweetID string) (*dto.ClaimResponse, error)
}

type claimUsecase struct {
	posts   repository.IPost
	payouts repository.IPayout
	wallets repository.IUserWallet
	policy  IRewardPolicyUsecase
	payout  IPayoutUsecase
}

func NewClaimUsecase(posts repository.IPost, payouts repository.IPayout, wallets repository.IUserWallet, policy IRewardPolicyUsecase, payout IPayoutUsecase) IClaimUsecase {
	return &claimUsecase{posts: posts, payouts: payouts, wallets: wallets, policy: policy, payout: payout}
}

func (u *claimUsecase) Status(ctx context.Context, tweetID string) (*dto.ClaimStatusResponse, error) {
	post, err := u.posts.GetByTweetID(ctx, tweetID)
	if errors.Is(err, model.ErrNotFound) {
		return &dto.ClaimStatusResponse{TweetID: tweetID, Status: dto.ClaimNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	res := &dto.ClaimStatusResponse{
		TweetID:      tweetID,
		Amount:       post.PayoutAmount,
		TxHash:       post.PayoutTxHash,
		QualityScore: post.QualityScore,
		AILikelihood: post.AILikelihood,
	}
	switch {
	case statusIs(post, model.PostPayoutPaid):
		res.Status = dto.ClaimClaimed
		return res, nil
	case post.ScoredAt == nil:
		res.Status = dto.ClaimPendingScore
		return res, nil
	case statusIs(post, model.PostPayoutIneligible):
		res.Status = dto.ClaimIneligible
		res.Reason = deref(post.PayoutReason)
		return res, nil
	}

	policy, err := u.policy.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !IsDisplayEligible(post.QualityScore, post.AILikelihood, policy) {
		res.Status = dto.ClaimIneligible
		if post.QualityScore != nil && post.AILikelihood != nil {
			res.Reason = IneligibleReason(*post.QualityScore, *post.AILikelihood, policy)
		}
		return res, nil
	}
	res.Status = dto.ClaimClaimable
	if statusIs(post, model.PostPayoutFailed) {
		res.Reason = deref(post.PayoutReason)
	}
	if res.Amount == nil && post.QualityScore != nil {
		amount := RewardAmount(*post.QualityScore, policy)
		res.Amount = &amount
	}
	return res, nil
}

// Claim settles the post's reward right away. A paid post returns its
// existing transaction; the payout record path is the same as the job's.
func (u *claimUsecase) Claim(ctx context.Context, tweetID string) (*dto.ClaimResponse, error) {
	post, err := u.posts.GetByTweetID(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	if statusIs(post, model.PostPayoutPaid) {
		return &dto.ClaimResponse{
			Success:        true,
			AlreadyClaimed: true,
			TxHash:         deref(post.PayoutTxHash),
			Amount:         derefFloat(post.PayoutAmount),
			Network:        u.payout.Network(),
			Message:        "already_claimed",
		}, nil
	}
	if !post.IsScored() {
		return nil, model.ErrPostNotScored
	}
	if statusIs(post, model.PostPayoutIneligible) {
		if strings.HasPrefix(deref(post.PayoutReason), "AI") {
			return nil, model.ErrAIFlagged
		}
		return nil, model.ErrBelowThreshold
	}
	policy, err := u.policy.Get(ctx)
	if err != nil {
		return nil, err
	}
	if *post.QualityScore < policy.MinQualityScore {
		return nil, model.ErrBelowThreshold
	}
	if *post.AILikelihood > policy.MaxAILikelihood {
		return nil, model.ErrAIFlagged
	}
	if statusIs(post, model.PostPayoutFailed) {
		return &dto.ClaimResponse{Success: false, Message: "previous payout failed: " + deref(post.PayoutReason)}, nil
	}
	if !u.payout.Configured() {
		return nil, model.ErrPaymentUnavailable
	}
	if post.AuthorWallet == nil {
		if _, err := u.wallets.Get(ctx, post.AuthorID, u.payout.Network()); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, model.ErrWalletNotLinked
			}
			return nil, err
		}
	}

	record, err := u.pendingRecord(ctx, post, policy)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return &dto.ClaimResponse{Success: false, Message: "payout already in progress"}, nil
	}
	settled, err := u.payout.SettleRecord(ctx, record)
	if errors.Is(err, ErrRecordTaken) {
		return &dto.ClaimResponse{Success: false, Message: "payout already in progress"}, nil
	}
	if err != nil {
		return &dto.ClaimResponse{Success: false, Message: err.Error()}, nil
	}
	return &dto.ClaimResponse{
		Success: true,
		TxHash:  deref(settled.TxHash),
		Amount:  settled.Amount,
		Network: settled.Network,
	}, nil
}

// pendingRecord returns the record a claim should settle, queueing the post
// first if it has never been considered.
func (u *claimUsecase) pendingRecord(ctx context.Context, post *model.Post, policy model.RewardPolicy) (*model.PayoutRecord, error) {
	if post.PayoutStatus == nil {
		rec, err := u.payout.QueuePost(ctx, post, policy)
		if err != nil {
			return nil, fmt.Errorf("queue payout: %w", err)
		}
		if rec != nil {
			return rec, nil
		}
	}
	rec, err := u.payouts.FindPendingByTweetID(ctx, post.TweetID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

func statusIs(post *model.Post, status string) bool {
	return post.PayoutStatus != nil && *post.PayoutStatus == status
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
