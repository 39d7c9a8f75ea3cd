package repository

import (
	"context"

	"social-reward-engine/domain/model"
)

type IPaymentLog interface {
	Create(ctx context.Context, log *model.PaymentLog) error
	ListByTwitterID(ctx context.Context, twitterID string, limit int) ([]model.PaymentLog, error)
}
