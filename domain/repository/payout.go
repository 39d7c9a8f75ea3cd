package repository

import (
	"context"

	"social-reward-engine/domain/model"
)

type IPayout interface {
	Create(ctx context.Context, record *model.PayoutRecord) error
	FindPending(ctx context.Context, limit int) ([]model.PayoutRecord, error)
	FindPendingByTweetID(ctx context.Context, tweetID string) (*model.PayoutRecord, error)
	// MarkProcessing moves a record from pending to processing. It reports
	// false when another caller already took the record.
	MarkProcessing(ctx context.Context, id string) (bool, error)
	MarkCompleted(ctx context.Context, id, txHash string) error
	MarkFailed(ctx context.Context, id, reason string) error
	History(ctx context.Context, page, limit int) ([]model.PayoutRecord, int64, error)
	Stats(ctx context.Context) (model.PayoutStats, error)
}
