package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/usecase"
)

type MockJob struct {
	mock.Mock
}

func (m *MockJob) Name() string { return m.Called().String(0) }

func (m *MockJob) Configured() bool { return m.Called().Bool(0) }

func (m *MockJob) RunOnce(ctx context.Context) (model.JobRunResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.JobRunResult), args.Error(1)
}

func (m *MockJob) Status(ctx context.Context) (*model.JobState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.JobState), args.Error(1)
}

type MockIngestUsecase struct {
	MockJob
}

func (m *MockIngestUsecase) Stats(ctx context.Context) (dto.FetcherStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(dto.FetcherStats), args.Error(1)
}

type MockPostUsecase struct {
	mock.Mock
}

func (m *MockPostUsecase) GetPost(ctx context.Context, tweetID string) (*model.Post, error) {
	args := m.Called(ctx, tweetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostUsecase) ListPosts(ctx context.Context, req dto.PostListRequest) (*dto.PostListResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PostListResponse), args.Error(1)
}

type MockScoringUsecase struct {
	MockJob
}

func (m *MockScoringUsecase) ScorePostByID(ctx context.Context, tweetID string) (*model.Post, error) {
	args := m.Called(ctx, tweetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockScoringUsecase) Stats(ctx context.Context) (dto.ScorerStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(dto.ScorerStats), args.Error(1)
}

func (m *MockScoringUsecase) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockPayoutUsecase struct {
	MockJob
}

func (m *MockPayoutUsecase) QueuePost(ctx context.Context, post *model.Post, policy model.RewardPolicy) (*model.PayoutRecord, error) {
	args := m.Called(ctx, post, policy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PayoutRecord), args.Error(1)
}

func (m *MockPayoutUsecase) SettleRecord(ctx context.Context, record *model.PayoutRecord) (*model.PayoutRecord, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PayoutRecord), args.Error(1)
}

func (m *MockPayoutUsecase) Requeue(ctx context.Context, tweetID string) error {
	return m.Called(ctx, tweetID).Error(0)
}

func (m *MockPayoutUsecase) History(ctx context.Context, req dto.PayoutHistoryRequest) (*dto.PayoutHistoryResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PayoutHistoryResponse), args.Error(1)
}

func (m *MockPayoutUsecase) Stats(ctx context.Context) (model.PayoutStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.PayoutStats), args.Error(1)
}

func (m *MockPayoutUsecase) Network() string { return m.Called().String(0) }

func (m *MockPayoutUsecase) PayerAddress() string { return m.Called().String(0) }

func (m *MockPayoutUsecase) WithBroadcaster(fn func(*model.PayoutRecord)) usecase.IPayoutUsecase {
	return m
}

type MockPolicyUsecase struct {
	mock.Mock
}

func (m *MockPolicyUsecase) Get(ctx context.Context) (model.RewardPolicy, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.RewardPolicy), args.Error(1)
}

func (m *MockPolicyUsecase) Update(ctx context.Context, update model.RewardPolicyUpdate) (model.RewardPolicy, error) {
	args := m.Called(ctx, update)
	return args.Get(0).(model.RewardPolicy), args.Error(1)
}

type MockClaimUsecase struct {
	mock.Mock
}

func (m *MockClaimUsecase) Status(ctx context.Context, tweetID string) (*dto.ClaimStatusResponse, error) {
	args := m.Called(ctx, tweetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ClaimStatusResponse), args.Error(1)
}

func (m *MockClaimUsecase) Claim(ctx context.Context, tweetID string) (*dto.ClaimResponse, error) {
	args := m.Called(ctx, tweetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ClaimResponse), args.Error(1)
}

type MockWalletUsecase struct {
	mock.Mock
}

func (m *MockWalletUsecase) GetWallet(ctx context.Context, twitterID, network string) (*model.UserWallet, error) {
	args := m.Called(ctx, twitterID, network)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserWallet), args.Error(1)
}

func (m *MockWalletUsecase) ListWallets(ctx context.Context, twitterID string) ([]model.UserWallet, error) {
	args := m.Called(ctx, twitterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserWallet), args.Error(1)
}

func (m *MockWalletUsecase) SetWallet(ctx context.Context, twitterID, address, network string) (*model.UserWallet, error) {
	args := m.Called(ctx, twitterID, address, network)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserWallet), args.Error(1)
}

type MockPaymentLogUsecase struct {
	mock.Mock
}

func (m *MockPaymentLogUsecase) Record(ctx context.Context, req dto.PaymentLogRequest) (*model.PaymentLog, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentLog), args.Error(1)
}

func (m *MockPaymentLogUsecase) List(ctx context.Context, twitterID string, limit int) ([]model.PaymentLog, error) {
	args := m.Called(ctx, twitterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentLog), args.Error(1)
}

type MockSettlementExecutor struct {
	mock.Mock
}

func (m *MockSettlementExecutor) Reward(ctx context.Context, twitterID, encodedPayment string) (*dto.RewardResponse, error) {
	args := m.Called(ctx, twitterID, encodedPayment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RewardResponse), args.Error(1)
}

func (m *MockSettlementExecutor) Wait() {}
