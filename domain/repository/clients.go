package repository

import (
	"context"
	"time"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
)

// IMentionsSource is the paginated upstream feed.
type IMentionsSource interface {
	Configured() bool
	FetchMentions(ctx context.Context, sinceID, paginationToken string, maxResults int) (*dto.MentionsPage, error)
}

// IScorer scores one post's text.
type IScorer interface {
	Configured() bool
	Score(ctx context.Context, req dto.ScoreRequest) (*model.Scores, error)
	Health(ctx context.Context) error
}

// IAuthorizationBuilder produces an encoded, signed payment authorization.
type IAuthorizationBuilder interface {
	PayerAddress() string
	Build(ctx context.Context, amount float64, now time.Time) (encoded string, payload *dto.PaymentPayload, err error)
}

// ISettlement hands an authorization to the settlement worker.
type ISettlement interface {
	Configured() bool
	Settle(ctx context.Context, twitterID, encodedPayment string) (*dto.RewardResponse, error)
}

// IFacilitator executes an authorization on-chain.
type IFacilitator interface {
	Settle(ctx context.Context, req dto.SettleRequest) (*dto.SettleResponse, error)
}

// IPaymentLogSink receives settlement outcomes for audit.
type IPaymentLogSink interface {
	LogPayment(ctx context.Context, entry dto.PaymentLogRequest) error
}

// IPayoutEventPublisher emits payout status changes to downstream consumers.
type IPayoutEventPublisher interface {
	PublishPayoutEvent(ctx context.Context, record *model.PayoutRecord) error
}
