package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.ErrNotFound, http.StatusNotFound},
		{model.ErrWalletNotFound, http.StatusNotFound},
		{model.ErrBelowThreshold, http.StatusBadRequest},
		{model.ErrWalletNotLinked, http.StatusBadRequest},
		{model.ErrAuthorizationExpiry, http.StatusBadRequest},
		{usecase.ErrInvalidPayment, http.StatusBadRequest},
		{model.ErrPaymentUnavailable, http.StatusServiceUnavailable},
		{&model.RateLimitError{}, http.StatusTooManyRequests},
		{&model.APIError{Service: "registry", StatusCode: 500}, http.StatusBadGateway},
		{&usecase.FacilitatorError{Reason: "insufficient_funds"}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestFetcherHandler_Trigger(t *testing.T) {
	ingest := new(MockIngestUsecase)
	ingest.On("Configured").Return(true)
	ingest.On("RunOnce", mock.Anything).Return(model.JobRunResult{Count: 7}, nil)

	r := gin.New()
	h := NewFetcherHandler(ingest, new(MockPostUsecase), time.Minute)
	r.POST("/fetcher/trigger", h.Trigger)

	w := serve(r, http.MethodPost, "/fetcher/trigger", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res dto.TriggerResponse
	decode(t, w, &res)
	assert.True(t, res.Success)
	assert.Equal(t, "Crawled 7 mentions", res.Message)
	assert.Equal(t, 7, res.Count)
}

func TestFetcherHandler_TriggerNotConfigured(t *testing.T) {
	ingest := new(MockIngestUsecase)
	ingest.On("Configured").Return(false)
	ingest.On("Name").Return("X API")

	r := gin.New()
	r.POST("/fetcher/trigger", NewFetcherHandler(ingest, new(MockPostUsecase), time.Minute).Trigger)

	w := serve(r, http.MethodPost, "/fetcher/trigger", "", nil)
	var res dto.TriggerResponse
	decode(t, w, &res)
	assert.False(t, res.Success)
	assert.Equal(t, "X API not configured", res.Message)
	ingest.AssertNotCalled(t, "RunOnce", mock.Anything)
}

func TestFetcherHandler_ListPosts(t *testing.T) {
	posts := new(MockPostUsecase)
	want := dto.PostListRequest{Page: 2, Limit: 10, SortBy: "quality", SortDir: "asc"}
	posts.On("ListPosts", mock.Anything, want).Return(&dto.PostListResponse{
		Posts:      []model.Post{{TweetID: "t1"}},
		Pagination: dto.NewPagination(2, 10, 11),
	}, nil)

	r := gin.New()
	r.GET("/fetcher/posts", NewFetcherHandler(new(MockIngestUsecase), posts, time.Minute).ListPosts)

	w := serve(r, http.MethodGet, "/fetcher/posts?page=2&limit=10&sortBy=quality&sortDir=asc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res dto.PostListResponse
	decode(t, w, &res)
	require.Len(t, res.Posts, 1)
	assert.Equal(t, "t1", res.Posts[0].TweetID)
	assert.Equal(t, int64(2), res.Pagination.TotalPages)
}

func TestScorerHandler_HealthDown(t *testing.T) {
	scoring := new(MockScoringUsecase)
	scoring.On("Health", mock.Anything).Return(errors.New("connection refused"))
	scoring.On("Configured").Return(true)

	r := gin.New()
	r.GET("/scorer/health", NewScorerHandler(scoring, time.Minute).Health)

	w := serve(r, http.MethodGet, "/scorer/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestScorerHandler_ScorePostNotFound(t *testing.T) {
	scoring := new(MockScoringUsecase)
	scoring.On("ScorePostByID", mock.Anything, "missing").Return(nil, model.ErrNotFound)

	r := gin.New()
	r.POST("/scorer/posts/:tweetId/score", NewScorerHandler(scoring, time.Minute).ScorePost)

	w := serve(r, http.MethodPost, "/scorer/posts/missing/score", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPayoutHandler_Health(t *testing.T) {
	payout := new(MockPayoutUsecase)
	payout.On("Configured").Return(true)
	payout.On("Network").Return("base")
	payout.On("PayerAddress").Return("0xPayer")

	r := gin.New()
	r.GET("/payout/health", NewPayoutHandler(payout, time.Minute).Health)

	w := serve(r, http.MethodGet, "/payout/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res map[string]interface{}
	decode(t, w, &res)
	assert.Equal(t, true, res["configured"])
	assert.Equal(t, "base", res["network"])
	assert.Equal(t, "0xPayer", res["payerAddress"])
}

func TestPayoutHandler_Requeue(t *testing.T) {
	payout := new(MockPayoutUsecase)
	payout.On("Requeue", mock.Anything, "ok").Return(nil)
	payout.On("Requeue", mock.Anything, "paid").Return(model.ErrNotFound)

	r := gin.New()
	r.POST("/payout/requeue/:tweetId", NewPayoutHandler(payout, time.Minute).Requeue)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/payout/requeue/ok", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPost, "/payout/requeue/paid", "", nil).Code)
}

func TestPayoutHandler_ExportHistory(t *testing.T) {
	payout := new(MockPayoutUsecase)
	page := func(n int, ids ...string) *dto.PayoutHistoryResponse {
		res := &dto.PayoutHistoryResponse{Pagination: dto.NewPagination(n, 100, 150)}
		for _, id := range ids {
			res.Payouts = append(res.Payouts, model.PayoutRecord{ID: id, TweetID: "tw-" + id, Status: model.PayoutCompleted})
		}
		return res
	}
	payout.On("History", mock.Anything, dto.PayoutHistoryRequest{Page: 1, Limit: 100}).Return(page(1, "a"), nil).Once()
	payout.On("History", mock.Anything, dto.PayoutHistoryRequest{Page: 2, Limit: 100}).Return(page(2, "b"), nil).Once()

	r := gin.New()
	r.GET("/payout/history/export", NewPayoutHandler(payout, time.Minute).ExportHistory)

	w := serve(r, http.MethodGet, "/payout/history/export", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "tw-a")
	assert.Contains(t, w.Body.String(), "tw-b")
	payout.AssertExpectations(t)
}

func TestConfigHandler_UpdateRejectsInvalid(t *testing.T) {
	policy := new(MockPolicyUsecase)
	policy.On("Update", mock.Anything, mock.Anything).Return(model.RewardPolicy{}, model.ErrInvalidPolicy)

	r := gin.New()
	r.PUT("/config/reward", NewConfigHandler(policy).UpdateRewardPolicy)

	w := serve(r, http.MethodPut, "/config/reward", `{"minQualityScore":150}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPut, "/config/reward", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClaimHandler(t *testing.T) {
	claims := new(MockClaimUsecase)
	claims.On("Claim", mock.Anything, "low").Return(nil, model.ErrBelowThreshold)
	claims.On("Claim", mock.Anything, "good").Return(&dto.ClaimResponse{Success: true, TxHash: "0xabc", Amount: 1, Network: "base"}, nil)
	claims.On("Status", mock.Anything, "good").Return(&dto.ClaimStatusResponse{TweetID: "good", Status: dto.ClaimClaimable}, nil)

	r := gin.New()
	h := NewClaimHandler(claims)
	r.POST("/claim/:tweetId", h.Claim)
	r.GET("/claim/:tweetId/status", h.Status)

	w := serve(r, http.MethodPost, "/claim/low", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "does not meet quality threshold")

	w = serve(r, http.MethodPost, "/claim/good", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res dto.ClaimResponse
	decode(t, w, &res)
	assert.Equal(t, "0xabc", res.TxHash)

	w = serve(r, http.MethodGet, "/claim/good/status", "", nil)
	assert.Contains(t, w.Body.String(), dto.ClaimClaimable)
}

func TestX402Handler_GetWallet(t *testing.T) {
	wallets := new(MockWalletUsecase)
	wallets.On("GetWallet", mock.Anything, "42", "base").Return(&model.UserWallet{TwitterID: "42", WalletAddress: "0xabc", Network: "base"}, nil)
	wallets.On("GetWallet", mock.Anything, "43", "").Return(nil, model.ErrNotFound)

	r := gin.New()
	r.GET("/x402/user/:twitterId/wallet", NewX402Handler(wallets, nil).GetWallet)

	w := serve(r, http.MethodGet, "/x402/user/42/wallet?network=base", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Success bool               `json:"success"`
		Data    dto.WalletResponse `json:"data"`
	}
	decode(t, w, &res)
	assert.True(t, res.Success)
	assert.Equal(t, "0xabc", res.Data.WalletAddress)

	w = serve(r, http.MethodGet, "/x402/user/43/wallet", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestX402Handler_SetWalletInvalid(t *testing.T) {
	wallets := new(MockWalletUsecase)
	wallets.On("SetWallet", mock.Anything, "42", "nope", "base").Return(nil, model.ErrInvalidWallet)

	r := gin.New()
	r.POST("/x402/user/:twitterId/wallet", NewX402Handler(wallets, nil).SetWallet)

	w := serve(r, http.MethodPost, "/x402/user/42/wallet", `{"walletAddress":"nope","network":"base"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPost, "/x402/user/42/wallet", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestX402Handler_PaymentLog(t *testing.T) {
	logs := new(MockPaymentLogUsecase)
	logs.On("Record", mock.Anything, mock.MatchedBy(func(req dto.PaymentLogRequest) bool {
		return req.TwitterID == "42" && req.Success
	})).Return(&model.PaymentLog{ID: 9}, nil)

	r := gin.New()
	r.POST("/x402/payment-log", NewX402Handler(new(MockWalletUsecase), logs).RecordPaymentLog)

	w := serve(r, http.MethodPost, "/x402/payment-log", `{"twitterId":"42","amount":"1000","network":"base","success":true}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":9`)

	w = serve(r, http.MethodPost, "/x402/payment-log", `{"amount":"1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestX402Handler_PaymentLogWithoutStore(t *testing.T) {
	r := gin.New()
	r.POST("/x402/payment-log", NewX402Handler(new(MockWalletUsecase), nil).RecordPaymentLog)

	w := serve(r, http.MethodPost, "/x402/payment-log", `{"twitterId":"42"}`, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRewardHandler(t *testing.T) {
	exec := new(MockSettlementExecutor)
	exec.On("Reward", mock.Anything, "ok", "payload").Return(&dto.RewardResponse{Success: true, TxHash: "0xabc", Network: "base"}, nil)
	exec.On("Reward", mock.Anything, "nowallet", "payload").Return(nil, model.ErrWalletNotFound)
	exec.On("Reward", mock.Anything, "bad", "payload").Return(nil, usecase.ErrInvalidPayment)
	exec.On("Reward", mock.Anything, "rejected", "payload").Return(nil, &usecase.FacilitatorError{Reason: "invalid_signature"})

	r := gin.New()
	r.POST("/reward/:twitterId", NewRewardHandler(exec).Reward)
	payment := map[string]string{HeaderPayment: "payload"}

	w := serve(r, http.MethodPost, "/reward/ok", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Missing X-PAYMENT header")
	exec.AssertNotCalled(t, "Reward", mock.Anything, "ok", "")

	w = serve(r, http.MethodPost, "/reward/ok", "", payment)
	require.Equal(t, http.StatusOK, w.Code)
	var res dto.RewardResponse
	decode(t, w, &res)
	assert.True(t, res.Success)
	assert.Equal(t, "0xabc", res.TxHash)

	w = serve(r, http.MethodPost, "/reward/nowallet", "", payment)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "User wallet not found")

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/reward/bad", "", payment).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodPost, "/reward/rejected", "", payment).Code)
}
