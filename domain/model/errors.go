package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrNotConfigured       = errors.New("not configured")
	ErrWalletNotFound      = errors.New("no wallet found")
	ErrPostNotScored       = errors.New("post not yet scored")
	ErrBelowThreshold      = errors.New("post does not meet quality threshold")
	ErrAIFlagged           = errors.New("post flagged as AI-generated")
	ErrWalletNotLinked     = errors.New("wallet not linked, please sign in first")
	ErrPaymentUnavailable  = errors.New("payment system not configured")
	ErrInvalidWallet       = errors.New("invalid wallet address")
	ErrUnsupportedNetwork  = errors.New("unsupported network")
	ErrAuthorizationExpiry = errors.New("authorization validity window expired")
	ErrInvalidPolicy       = errors.New("invalid reward policy")
)

// RateLimitError is returned by an upstream that asked us to back off.
type RateLimitError struct {
	ResetAt *time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt != nil {
		return fmt.Sprintf("upstream rate limit exceeded, resets at %s", e.ResetAt.UTC().Format(time.RFC3339))
	}
	return "upstream rate limit exceeded"
}

// APIError is a non-success response from an upstream HTTP API.
type APIError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}
