package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"social-reward-engine/domain/model"
	"social-reward-engine/infrastructure/logger"
	"social-reward-engine/usecase"
)

const (
	ErrorUnmarshal = "Error while unmarshal"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var rateLimited *model.RateLimitError
	var apiErr *model.APIError
	var rejected *usecase.FacilitatorError

	switch {
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrWalletNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidWallet),
		errors.Is(err, model.ErrUnsupportedNetwork),
		errors.Is(err, model.ErrInvalidPolicy),
		errors.Is(err, model.ErrPostNotScored),
		errors.Is(err, model.ErrBelowThreshold),
		errors.Is(err, model.ErrAIFlagged),
		errors.Is(err, model.ErrWalletNotLinked),
		errors.Is(err, model.ErrAuthorizationExpiry),
		errors.Is(err, usecase.ErrInvalidPayment):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotConfigured), errors.Is(err, model.ErrPaymentUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &rejected):
		return http.StatusInternalServerError
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.GetLogger().WithField("path", c.FullPath()).WithField("error", err.Error()).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
