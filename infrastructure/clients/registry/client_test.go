package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetWallet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/x402/user/42/wallet", r.URL.Path)
		assert.Equal(t, "base", r.URL.Query().Get("network"))
		assert.Equal(t, "svc-key", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"twitterId":"42","walletAddress":"0xAbC","network":"base"}}`))
	}))
	defer srv.Close()

	addr, err := NewClient(srv.URL, "svc-key", 0).GetWallet(context.Background(), "42", "base")
	require.NoError(t, err)
	assert.Equal(t, "0xAbC", addr)
}

func TestGetWallet_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", 0).GetWallet(context.Background(), "42", "base")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLogPayment(t *testing.T) {
	var got dto.PaymentLogRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/x402/payment-log", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tx := "0xabc"
	err := NewClient(srv.URL, "", 0).LogPayment(context.Background(), dto.PaymentLogRequest{
		Type: "reward", TwitterID: "42", TxHash: &tx, Amount: "960000", Network: "base", Success: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "42", got.TwitterID)
	assert.Equal(t, "0xabc", *got.TxHash)
	assert.True(t, got.Success)
}

func TestLogPayment_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "", 0).LogPayment(context.Background(), dto.PaymentLogRequest{TwitterID: "42"})
	var apiErr *model.APIError
	assert.ErrorAs(t, err, &apiErr)
}
