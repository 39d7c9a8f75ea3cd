package repository

import (
	"context"
	"time"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
)

// IPost is the post store. Every mutation is a single-document update scoped
// to the fields owned by the calling job.
type IPost interface {
	// InsertIfAbsent stores the post unless its tweet id already exists.
	// It reports whether a new document was created.
	InsertIfAbsent(ctx context.Context, post *model.Post) (bool, error)
	GetByTweetID(ctx context.Context, tweetID string) (*model.Post, error)
	List(ctx context.Context, req dto.PostListRequest) ([]model.Post, int64, error)

	FindUnscored(ctx context.Context, limit int) ([]model.Post, error)
	SetScores(ctx context.Context, tweetID string, scores model.Scores, scoredAt time.Time, scoringErr *string) error

	FindAwaitingPayout(ctx context.Context, limit int) ([]model.Post, error)
	// MarkQueued claims a post for payout only if it carries no payout status.
	MarkQueued(ctx context.Context, tweetID string, amount float64) (bool, error)
	MarkIneligible(ctx context.Context, tweetID, reason string) (bool, error)
	MarkPaid(ctx context.Context, tweetID, txHash string, paidAt time.Time) error
	MarkFailed(ctx context.Context, tweetID, reason string) error
	// ResetFailed clears the payout fields of a failed post so it can be queued again.
	ResetFailed(ctx context.Context, tweetID string) (bool, error)

	BackfillWallet(ctx context.Context, authorID, wallet string) (int64, error)

	FetcherStats(ctx context.Context) (dto.FetcherStats, error)
	ScorerStats(ctx context.Context) (dto.ScorerStats, error)
}
