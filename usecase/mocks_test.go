package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
)

// Mock implementations

type MockMentionsSource struct {
	mock.Mock
}

func (m *MockMentionsSource) Configured() bool { return true }

func (m *MockMentionsSource) FetchMentions(ctx context.Context, sinceID, paginationToken string, maxResults int) (*dto.MentionsPage, error) {
	args := m.Called(ctx, sinceID, paginationToken, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MentionsPage), args.Error(1)
}

type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) Configured() bool { return true }

func (m *MockScorer) Score(ctx context.Context, req dto.ScoreRequest) (*model.Scores, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Scores), args.Error(1)
}

func (m *MockScorer) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockAuthorizationBuilder struct {
	mock.Mock
}

func (m *MockAuthorizationBuilder) PayerAddress() string { return "0x00000000000000000000000000000000000000aa" }

func (m *MockAuthorizationBuilder) Build(ctx context.Context, amount float64, now time.Time) (string, *dto.PaymentPayload, error) {
	args := m.Called(ctx, amount, now)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*dto.PaymentPayload), args.Error(2)
}

type MockSettlement struct {
	mock.Mock
}

func (m *MockSettlement) Configured() bool { return true }

func (m *MockSettlement) Settle(ctx context.Context, twitterID, encodedPayment string) (*dto.RewardResponse, error) {
	args := m.Called(ctx, twitterID, encodedPayment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RewardResponse), args.Error(1)
}

type MockFacilitator struct {
	mock.Mock
}

func (m *MockFacilitator) Settle(ctx context.Context, req dto.SettleRequest) (*dto.SettleResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SettleResponse), args.Error(1)
}

type MockWalletLookup struct {
	mock.Mock
}

func (m *MockWalletLookup) GetWallet(ctx context.Context, twitterID, network string) (string, error) {
	args := m.Called(ctx, twitterID, network)
	return args.String(0), args.Error(1)
}

type MockPaymentLogSink struct {
	mock.Mock
}

func (m *MockPaymentLogSink) LogPayment(ctx context.Context, entry dto.PaymentLogRequest) error {
	return m.Called(ctx, entry).Error(0)
}

type MockPayoutEventPublisher struct {
	mock.Mock
}

func (m *MockPayoutEventPublisher) PublishPayoutEvent(ctx context.Context, record *model.PayoutRecord) error {
	return m.Called(ctx, record).Error(0)
}

type MockPolicyCache struct {
	mock.Mock
}

func (m *MockPolicyCache) Get(ctx context.Context) (*model.RewardPolicy, bool) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*model.RewardPolicy), args.Bool(1)
}

func (m *MockPolicyCache) Set(ctx context.Context, policy *model.RewardPolicy) {
	m.Called(ctx, policy)
}

func (m *MockPolicyCache) Invalidate(ctx context.Context) {
	m.Called(ctx)
}

type MockPaymentLogRepository struct {
	mock.Mock
}

func (m *MockPaymentLogRepository) Create(ctx context.Context, log *model.PaymentLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *MockPaymentLogRepository) ListByTwitterID(ctx context.Context, twitterID string, limit int) ([]model.PaymentLog, error) {
	args := m.Called(ctx, twitterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentLog), args.Error(1)
}

// In-memory stores. They keep the conditional update semantics of the
// Mongo repositories so concurrency rules can be exercised without a server.

type fakePosts struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*model.Post
}

func newFakePosts(posts ...model.Post) *fakePosts {
	f := &fakePosts{byID: map[string]*model.Post{}}
	for i := range posts {
		_, _ = f.InsertIfAbsent(context.Background(), &posts[i])
	}
	return f
}

func (f *fakePosts) get(id string) model.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}

func (f *fakePosts) InsertIfAbsent(_ context.Context, post *model.Post) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[post.TweetID]; ok {
		return false, nil
	}
	cp := *post
	f.byID[post.TweetID] = &cp
	f.order = append(f.order, post.TweetID)
	return true, nil
}

func (f *fakePosts) GetByTweetID(_ context.Context, tweetID string) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[tweetID]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePosts) List(_ context.Context, req dto.PostListRequest) ([]model.Post, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Post, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, *f.byID[id])
	}
	return out, int64(len(out)), nil
}

func (f *fakePosts) selectWhere(limit int, keep func(*model.Post) bool) []model.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Post
	for _, id := range f.order {
		if p := f.byID[id]; keep(p) {
			out = append(out, *p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CrawledAt.Before(out[j].CrawledAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakePosts) FindUnscored(_ context.Context, limit int) ([]model.Post, error) {
	return f.selectWhere(limit, func(p *model.Post) bool { return p.ScoredAt == nil }), nil
}

func (f *fakePosts) SetScores(ctx context.Context, tweetID string, scores model.Scores, scoredAt time.Time, scoringErr *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[tweetID]
	if !ok {
		return model.ErrNotFound
	}
	q, a, s := scores.Quality, scores.AILikelihood, scores.Spam
	p.QualityScore, p.AILikelihood, p.SpamScore = &q, &a, &s
	p.ScoredAt = &scoredAt
	p.ScoringError = scoringErr
	return nil
}

func (f *fakePosts) FindAwaitingPayout(_ context.Context, limit int) ([]model.Post, error) {
	return f.selectWhere(limit, func(p *model.Post) bool { return p.ScoredAt != nil && p.PayoutStatus == nil }), nil
}

func (f *fakePosts) claim(tweetID string, apply func(*model.Post)) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[tweetID]
	if !ok || p.PayoutStatus != nil {
		return false, nil
	}
	apply(p)
	return true, nil
}

func (f *fakePosts) MarkQueued(_ context.Context, tweetID string, amount float64) (bool, error) {
	return f.claim(tweetID, func(p *model.Post) {
		status := model.PostPayoutQueued
		p.PayoutStatus, p.PayoutAmount = &status, &amount
	})
}

func (f *fakePosts) MarkIneligible(_ context.Context, tweetID, reason string) (bool, error) {
	return f.claim(tweetID, func(p *model.Post) {
		status := model.PostPayoutIneligible
		p.PayoutStatus, p.PayoutReason = &status, &reason
	})
}

func (f *fakePosts) MarkPaid(ctx context.Context, tweetID, txHash string, paidAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.byID[tweetID]
	status := model.PostPayoutPaid
	p.PayoutStatus, p.PayoutTxHash, p.PaidAt = &status, &txHash, &paidAt
	return nil
}

func (f *fakePosts) MarkFailed(ctx context.Context, tweetID, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.byID[tweetID]
	status := model.PostPayoutFailed
	p.PayoutStatus, p.PayoutReason = &status, &reason
	return nil
}

func (f *fakePosts) ResetFailed(_ context.Context, tweetID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[tweetID]
	if !ok || p.PayoutStatus == nil || *p.PayoutStatus != model.PostPayoutFailed {
		return false, nil
	}
	p.PayoutStatus, p.PayoutReason, p.PayoutAmount = nil, nil, nil
	return true, nil
}

func (f *fakePosts) BackfillWallet(_ context.Context, authorID, wallet string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.byID {
		if p.AuthorID == authorID && p.AuthorWallet == nil {
			w := wallet
			p.AuthorWallet = &w
			n++
		}
	}
	return n, nil
}

func (f *fakePosts) FetcherStats(_ context.Context) (dto.FetcherStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s dto.FetcherStats
	for _, p := range f.byID {
		s.Total++
		if p.ScoredAt == nil {
			s.Pending++
		} else {
			s.Scored++
		}
	}
	return s, nil
}

func (f *fakePosts) ScorerStats(_ context.Context) (dto.ScorerStats, error) {
	fs, _ := f.FetcherStats(context.Background())
	return dto.ScorerStats{Total: fs.Total, Scored: fs.Scored, Pending: fs.Pending}, nil
}

type fakePayouts struct {
	mu      sync.Mutex
	seq     int
	records []*model.PayoutRecord
	// takenBy simulates another caller moving a record out of pending.
	takenBy map[string]bool
	// completeErr makes MarkCompleted fail.
	completeErr error
}

func newFakePayouts() *fakePayouts {
	return &fakePayouts{takenBy: map[string]bool{}}
}

func (f *fakePayouts) all() []model.PayoutRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.PayoutRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, *r)
	}
	return out
}

func (f *fakePayouts) Create(_ context.Context, record *model.PayoutRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	record.ID = fmt.Sprintf("p-%d", f.seq)
	cp := *record
	f.records = append(f.records, &cp)
	return nil
}

func (f *fakePayouts) FindPending(_ context.Context, limit int) ([]model.PayoutRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PayoutRecord
	for _, r := range f.records {
		if r.Status == model.PayoutPending && len(out) < limit {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakePayouts) FindPendingByTweetID(_ context.Context, tweetID string) (*model.PayoutRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.TweetID == tweetID && r.Status == model.PayoutPending {
			cp := *r
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakePayouts) find(id string) *model.PayoutRecord {
	for _, r := range f.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (f *fakePayouts) MarkProcessing(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.find(id)
	if r == nil || r.Status != model.PayoutPending || f.takenBy[id] {
		return false, nil
	}
	r.Status = model.PayoutProcessing
	return true, nil
}

func (f *fakePayouts) MarkCompleted(ctx context.Context, id, txHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return f.completeErr
	}
	r := f.find(id)
	if r == nil {
		return model.ErrNotFound
	}
	r.Status, r.TxHash = model.PayoutCompleted, &txHash
	return nil
}

func (f *fakePayouts) MarkFailed(ctx context.Context, id, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.find(id)
	if r == nil {
		return model.ErrNotFound
	}
	r.Status, r.Error = model.PayoutFailed, &reason
	return nil
}

func (f *fakePayouts) History(_ context.Context, page, limit int) ([]model.PayoutRecord, int64, error) {
	all := f.all()
	return all, int64(len(all)), nil
}

func (f *fakePayouts) Stats(_ context.Context) (model.PayoutStats, error) {
	var s model.PayoutStats
	for _, r := range f.all() {
		s.Total++
		switch r.Status {
		case model.PayoutPending:
			s.Pending++
		case model.PayoutProcessing:
			s.Processing++
		case model.PayoutCompleted:
			s.Completed++
			s.TotalPaid += r.Amount
		case model.PayoutFailed:
			s.Failed++
		}
	}
	return s, nil
}

type fakeJobStates struct {
	mu     sync.Mutex
	states map[string]*model.JobState
}

func newFakeJobStates() *fakeJobStates {
	return &fakeJobStates{states: map[string]*model.JobState{}}
}

func (f *fakeJobStates) state(name string) *model.JobState {
	s, ok := f.states[name]
	if !ok {
		s = &model.JobState{JobName: name, Status: model.JobStatusIdle}
		f.states[name] = s
	}
	return s
}

func (f *fakeJobStates) Get(_ context.Context, jobName string) (*model.JobState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[jobName]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeJobStates) TryAcquire(_ context.Context, jobName string) (bool, *model.JobState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[jobName]
	if ok && s.Status == model.JobStatusRunning {
		return false, nil, nil
	}
	var prior *model.JobState
	if ok {
		cp := *s
		prior = &cp
	}
	now := time.Now()
	s = f.state(jobName)
	s.Status, s.LastRunAt = model.JobStatusRunning, &now
	return true, prior, nil
}

func (f *fakeJobStates) MarkSuccess(ctx context.Context, jobName string, counters model.JobCounters) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.state(jobName)
	now := time.Now()
	s.Status, s.LastSuccessAt, s.Error, s.RateLimitUntil = model.JobStatusIdle, &now, nil, nil
	if counters.ProcessedCount != nil {
		s.ProcessedCount = counters.ProcessedCount
	}
	if counters.TotalPaid != nil {
		s.TotalPaid = counters.TotalPaid
	}
	return nil
}

func (f *fakeJobStates) MarkError(ctx context.Context, jobName, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.state(jobName)
	s.Status, s.Error = model.JobStatusError, &message
	return nil
}

func (f *fakeJobStates) SetCursor(_ context.Context, jobName, cursor string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state(jobName).Cursor = &cursor
	return nil
}

func (f *fakeJobStates) SetRateLimited(ctx context.Context, jobName string, until time.Time, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.state(jobName)
	s.Status, s.RateLimitUntil, s.Error = model.JobStatusError, &until, &message
	return nil
}

type fakeWallets struct {
	mu      sync.Mutex
	wallets map[string]model.UserWallet
}

func newFakeWallets(ws ...model.UserWallet) *fakeWallets {
	f := &fakeWallets{wallets: map[string]model.UserWallet{}}
	for _, w := range ws {
		f.wallets[w.TwitterID+"|"+w.Network] = w
	}
	return f
}

func (f *fakeWallets) Get(_ context.Context, twitterID, network string) (*model.UserWallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[twitterID+"|"+network]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &w, nil
}

func (f *fakeWallets) List(_ context.Context, twitterID string) ([]model.UserWallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.UserWallet
	for _, w := range f.wallets {
		if w.TwitterID == twitterID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWallets) Upsert(_ context.Context, twitterID, network, address string) (*model.UserWallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := twitterID + "|" + network
	w, ok := f.wallets[key]
	if !ok {
		w = model.UserWallet{TwitterID: twitterID, Network: network, IsPrimary: true, CreatedAt: time.Now()}
	}
	w.WalletAddress, w.UpdatedAt = address, time.Now()
	f.wallets[key] = w
	return &w, nil
}

type fakePolicyRepo struct {
	mu     sync.Mutex
	policy *model.RewardPolicy
	reads  int
}

func (f *fakePolicyRepo) GetOrCreate(_ context.Context, defaults model.RewardPolicy) (*model.RewardPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.policy == nil {
		cp := defaults
		f.policy = &cp
	}
	cp := *f.policy
	return &cp, nil
}

func (f *fakePolicyRepo) Update(_ context.Context, update model.RewardPolicyUpdate) (*model.RewardPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if update.MinQualityScore != nil {
		f.policy.MinQualityScore = *update.MinQualityScore
	}
	if update.MaxAILikelihood != nil {
		f.policy.MaxAILikelihood = *update.MaxAILikelihood
	}
	if update.BaseAmount != nil {
		f.policy.BaseAmount = *update.BaseAmount
	}
	if update.Token != nil {
		f.policy.Token = *update.Token
	}
	if update.MinMultiplier != nil {
		f.policy.MinMultiplier = *update.MinMultiplier
	}
	cp := *f.policy
	return &cp, nil
}

func f64(v float64) *float64 { return &v }

func str(v string) *string { return &v }

// scoredPost is a crawled post that the scoring job has finished with.
func scoredPost(id string, quality, ai float64) model.Post {
	now := time.Now()
	return model.Post{
		TweetID:        id,
		Text:           "post " + id,
		AuthorID:       "author-" + id,
		AuthorUsername: "user" + id,
		QualityScore:   f64(quality),
		AILikelihood:   f64(ai),
		SpamScore:      f64(5),
		ScoredAt:       &now,
		CrawledAt:      now,
	}
}
