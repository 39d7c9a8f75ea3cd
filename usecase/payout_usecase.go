package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/domain/repository"
	"social-reward-engine/infrastructure/logger"

	"github.com/shopspring/decimal"
)

// ErrRecordTaken is returned when another caller already moved a payout
// record out of pending.
var ErrRecordTaken = errors.New("payout record already being settled")

type IPayoutUsecase interface {
	IJobUsecase
	// QueuePost creates a pending payout for an eligible post with no payout
	// status. It returns nil when the post was claimed by someone else.
	QueuePost(ctx context.Context, post *model.Post, policy model.RewardPolicy) (*model.PayoutRecord, error)
	SettleRecord(ctx context.Context, record *model.PayoutRecord) (*model.PayoutRecord, error)
	Requeue(ctx context.Context, tweetID string) error
	History(ctx context.Context, req dto.PayoutHistoryRequest) (*dto.PayoutHistoryResponse, error)
	Stats(ctx context.Context) (model.PayoutStats, error)
	Network() string
	PayerAddress() string
	WithBroadcaster(fn func(*model.PayoutRecord)) IPayoutUsecase
}

type PayoutConfig struct {
	BatchSize int
	Network   string
	// SettleTimeout bounds one settlement once started. It is independent of
	// the pass deadline so a started settlement is never cut short by it.
	SettleTimeout time.Duration
}

// DefaultSettleTimeout leaves headroom over the worker client timeout.
const DefaultSettleTimeout = 90 * time.Second

type payoutUsecase struct {
	posts      repository.IPost
	payouts    repository.IPayout
	wallets    repository.IUserWallet
	states     repository.IJobState
	policy     IRewardPolicyUsecase
	builder    repository.IAuthorizationBuilder
	settlement repository.ISettlement
	publisher  repository.IPayoutEventPublisher
	broadcast  func(*model.PayoutRecord)
	cfg        PayoutConfig
	now        func() time.Time
}

func NewPayoutUsecase(
	posts repository.IPost,
	payouts repository.IPayout,
	wallets repository.IUserWallet,
	states repository.IJobState,
	policy IRewardPolicyUsecase,
	builder repository.IAuthorizationBuilder,
	settlement repository.ISettlement,
	publisher repository.IPayoutEventPublisher,
	cfg PayoutConfig,
) IPayoutUsecase {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Network == "" {
		cfg.Network = model.NetworkBase
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = DefaultSettleTimeout
	}
	return &payoutUsecase{
		posts:      posts,
		payouts:    payouts,
		wallets:    wallets,
		states:     states,
		policy:     policy,
		builder:    builder,
		settlement: settlement,
		publisher:  publisher,
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithBroadcaster attaches a callback invoked on every payout status change.
func (u *payoutUsecase) WithBroadcaster(fn func(*model.PayoutRecord)) IPayoutUsecase {
	u.broadcast = fn
	return u
}

func (u *payoutUsecase) Name() string { return "payment system" }

func (u *payoutUsecase) Configured() bool {
	return u.builder != nil && u.settlement != nil && u.settlement.Configured()
}

func (u *payoutUsecase) Network() string { return u.cfg.Network }

func (u *payoutUsecase) PayerAddress() string {
	if u.builder == nil {
		return ""
	}
	return u.builder.PayerAddress()
}

func (u *payoutUsecase) Status(ctx context.Context) (*model.JobState, error) {
	return jobStatus(ctx, u.states, model.JobPayout)
}

func (u *payoutUsecase) Stats(ctx context.Context) (model.PayoutStats, error) {
	stats, err := u.payouts.Stats(ctx)
	if err != nil {
		return stats, err
	}
	stats.Network = u.cfg.Network
	if policy, err := u.policy.Get(ctx); err == nil {
		stats.Token = policy.Token
	}
	return stats, nil
}

func (u *payoutUsecase) History(ctx context.Context, req dto.PayoutHistoryRequest) (*dto.PayoutHistoryResponse, error) {
	req.Normalize()
	records, total, err := u.payouts.History(ctx, req.Page, req.Limit)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.PayoutRecord{}
	}
	return &dto.PayoutHistoryResponse{Payouts: records, Pagination: dto.NewPagination(req.Page, req.Limit, total)}, nil
}

// RunOnce queues newly scored posts and then settles pending records, both
// under one acquisition of the payout lock.
func (u *payoutUsecase) RunOnce(ctx context.Context) (model.JobRunResult, error) {
	if !u.Configured() {
		return model.JobRunResult{Skipped: true, SkipReason: "payment system not configured"}, nil
	}
	lg := logger.GetLogger().WithField("job", model.JobPayout)

	acquired, prior, err := acquireJob(ctx, u.states, model.JobPayout)
	if err != nil {
		return model.JobRunResult{}, err
	}
	if !acquired {
		return model.JobRunResult{Skipped: true, SkipReason: "payout already running"}, nil
	}

	fail := func(err error) (model.JobRunResult, error) {
		failJob(ctx, u.states, model.JobPayout, err)
		return model.JobRunResult{}, err
	}

	policy, err := u.policy.Get(ctx)
	if err != nil {
		return fail(err)
	}
	queued, err := u.queue(ctx, policy)
	if err != nil {
		return fail(err)
	}
	paid, amount, err := u.settlePending(ctx)
	if err != nil {
		return fail(err)
	}

	counters := model.JobCounters{ProcessedCount: addCount(nil, paid)}
	total := amount
	if prior != nil {
		counters.ProcessedCount = addCount(prior.ProcessedCount, paid)
		if prior.TotalPaid != nil {
			total = total.Add(decimal.NewFromFloat(*prior.TotalPaid))
		}
	}
	totalPaid := total.Round(2).InexactFloat64()
	counters.TotalPaid = &totalPaid
	if err := finishJob(ctx, u.states, model.JobPayout, counters); err != nil {
		return model.JobRunResult{Count: paid}, fmt.Errorf("mark payout success: %w", err)
	}
	lg.WithField("queued", queued).WithField("paid", paid).Info("payout pass finished")
	return model.JobRunResult{Count: paid}, nil
}

// queue turns scored posts without a payout status into pending records or
// terminal ineligible posts. The selection is bounded at twice the batch.
func (u *payoutUsecase) queue(ctx context.Context, policy model.RewardPolicy) (int, error) {
	posts, err := u.posts.FindAwaitingPayout(ctx, u.cfg.BatchSize*2)
	if err != nil {
		return 0, fmt.Errorf("select posts awaiting payout: %w", err)
	}
	queued := 0
	for i := range posts {
		if ctx.Err() != nil {
			break
		}
		post := &posts[i]
		if !post.IsScored() {
			continue
		}
		lg := logger.GetLogger().WithField("tweet_id", post.TweetID)
		if !IsEligible(*post.QualityScore, *post.AILikelihood, policy) {
			reason := IneligibleReason(*post.QualityScore, *post.AILikelihood, policy)
			if _, err := u.posts.MarkIneligible(ctx, post.TweetID, reason); err != nil {
				lg.WithField("error", err.Error()).Warn("failed to mark post ineligible")
			}
			continue
		}
		rec, err := u.QueuePost(ctx, post, policy)
		if err != nil {
			lg.WithField("error", err.Error()).Warn("failed to queue payout")
			continue
		}
		if rec != nil {
			queued++
		}
	}
	return queued, nil
}

func (u *payoutUsecase) QueuePost(ctx context.Context, post *model.Post, policy model.RewardPolicy) (*model.PayoutRecord, error) {
	amount := RewardAmount(*post.QualityScore, policy)
	claimed, err := u.posts.MarkQueued(ctx, post.TweetID, amount)
	if err != nil {
		return nil, fmt.Errorf("mark post queued: %w", err)
	}
	if !claimed {
		return nil, nil
	}
	now := u.now()
	rec := &model.PayoutRecord{
		TweetID:          post.TweetID,
		AuthorID:         post.AuthorID,
		RecipientAddress: post.AuthorWallet,
		Amount:           amount,
		Token:            policy.Token,
		Network:          u.cfg.Network,
		Status:           model.PayoutPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := u.payouts.Create(ctx, rec); err != nil {
		reason := fmt.Sprintf("could not create payout record: %v", err)
		if mErr := u.posts.MarkFailed(ctx, post.TweetID, reason); mErr != nil {
			logger.GetLogger().WithField("tweet_id", post.TweetID).WithField("error", mErr.Error()).Error("failed to release queued post")
		}
		return nil, fmt.Errorf("create payout record: %w", err)
	}
	u.notify(ctx, rec)
	return rec, nil
}

func (u *payoutUsecase) settlePending(ctx context.Context) (int, decimal.Decimal, error) {
	records, err := u.payouts.FindPending(ctx, u.cfg.BatchSize)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("select pending payouts: %w", err)
	}
	paid := 0
	total := decimal.Zero
	for i := range records {
		if ctx.Err() != nil {
			logger.GetLogger().WithField("job", model.JobPayout).WithField("remaining", len(records)-i).Warn("pass deadline reached, leaving payouts pending")
			break
		}
		rec, err := u.SettleRecord(ctx, &records[i])
		if err != nil {
			continue
		}
		paid++
		total = total.Add(decimal.NewFromFloat(rec.Amount))
	}
	return paid, total, nil
}

// SettleRecord drives one pending record to completed or failed. The
// pending->processing transition is conditional so a record is settled at
// most once even when the job and a claim race for it. Once a record is
// taken, cancelling ctx no longer interrupts it.
func (u *payoutUsecase) SettleRecord(ctx context.Context, record *model.PayoutRecord) (*model.PayoutRecord, error) {
	lg := logger.GetLogger().WithField("payout_id", record.ID).WithField("tweet_id", record.TweetID)
	if !u.Configured() {
		return nil, model.ErrPaymentUnavailable
	}
	taken, err := u.payouts.MarkProcessing(ctx, record.ID)
	if err != nil {
		lg.WithField("error", err.Error()).Warn("failed to mark payout processing")
		return nil, err
	}
	if !taken {
		return nil, ErrRecordTaken
	}
	rec := *record
	rec.Status = model.PayoutProcessing
	u.notify(ctx, &rec)

	settleCtx, cancelSettle := detached(ctx, u.cfg.SettleTimeout)
	txHash, err := u.execute(settleCtx, &rec)
	cancelSettle()
	rec.UpdatedAt = u.now()

	wctx, cancel := detached(ctx, stateWriteTimeout)
	defer cancel()
	if err != nil {
		msg := err.Error()
		rec.Status = model.PayoutFailed
		rec.Error = &msg
		if mErr := u.payouts.MarkFailed(wctx, rec.ID, msg); mErr != nil {
			lg.WithField("error", mErr.Error()).Error("failed to mark payout failed")
		}
		if mErr := u.posts.MarkFailed(wctx, rec.TweetID, msg); mErr != nil {
			lg.WithField("error", mErr.Error()).Error("failed to mark post failed")
		}
		lg.WithField("error", msg).Warn("payout failed")
		u.notify(ctx, &rec)
		return &rec, err
	}

	// The post is only marked paid once its record is completed. A record
	// left in processing with a logged tx hash needs manual reconciliation.
	if err := u.payouts.MarkCompleted(wctx, rec.ID, txHash); err != nil {
		lg.WithField("tx_hash", txHash).WithField("error", err.Error()).Error("settled on-chain but failed to mark payout completed, reconcile manually")
		return nil, fmt.Errorf("record settlement %s: %w", txHash, err)
	}
	rec.Status = model.PayoutCompleted
	rec.TxHash = &txHash
	if err := u.posts.MarkPaid(wctx, rec.TweetID, txHash, rec.UpdatedAt); err != nil {
		lg.WithField("tx_hash", txHash).WithField("error", err.Error()).Error("settled on-chain but failed to mark post paid")
	}
	lg.WithField("tx_hash", txHash).WithField("amount", rec.Amount).Info("payout completed")
	u.notify(ctx, &rec)
	return &rec, nil
}

func (u *payoutUsecase) execute(ctx context.Context, rec *model.PayoutRecord) (string, error) {
	if rec.RecipientAddress == nil || *rec.RecipientAddress == "" {
		w, err := u.wallets.Get(ctx, rec.AuthorID, rec.Network)
		if errors.Is(err, model.ErrNotFound) {
			return "", model.ErrWalletNotFound
		}
		if err != nil {
			return "", fmt.Errorf("wallet lookup: %w", err)
		}
		rec.RecipientAddress = &w.WalletAddress
	}

	encoded, _, err := u.builder.Build(ctx, rec.Amount, u.now())
	if err != nil {
		return "", fmt.Errorf("build authorization: %w", err)
	}
	resp, err := u.settlement.Settle(ctx, rec.AuthorID, encoded)
	if err != nil {
		return "", err
	}
	if !resp.Success {
		if resp.Error != "" {
			return "", errors.New(resp.Error)
		}
		return "", errors.New("settlement rejected")
	}
	if resp.TxHash == "" {
		return "", errors.New("settlement returned no transaction reference")
	}
	return resp.TxHash, nil
}

// Requeue releases a failed post so the next queueing pass creates a new
// payout record for it.
func (u *payoutUsecase) Requeue(ctx context.Context, tweetID string) error {
	ok, err := u.posts.ResetFailed(ctx, tweetID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: post %s is not in failed state", model.ErrNotFound, tweetID)
	}
	logger.GetLogger().WithField("tweet_id", tweetID).Info("failed payout re-queued")
	return nil
}

func (u *payoutUsecase) notify(ctx context.Context, rec *model.PayoutRecord) {
	if u.broadcast != nil {
		u.broadcast(rec)
	}
	if u.publisher == nil {
		return
	}
	switch rec.Status {
	case model.PayoutCompleted, model.PayoutFailed:
	default:
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := u.publisher.PublishPayoutEvent(pubCtx, rec); err != nil {
		logger.GetLogger().WithField("payout_id", rec.ID).WithField("error", err.Error()).Warn("failed to publish payout event")
	}
}
