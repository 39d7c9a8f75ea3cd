package usecase

import (
	"context"
	"fmt"
	"time"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/domain/repository"
)

type IPaymentLogUsecase interface {
	Record(ctx context.Context, req dto.PaymentLogRequest) (*model.PaymentLog, error)
	List(ctx context.Context, twitterID string, limit int) ([]model.PaymentLog, error)
}

type paymentLogUsecase struct {
	repo repository.IPaymentLog
}

func NewPaymentLogUsecase(repo repository.IPaymentLog) IPaymentLogUsecase {
	return &paymentLogUsecase{repo: repo}
}

func (u *paymentLogUsecase) Record(ctx context.Context, req dto.PaymentLogRequest) (*model.PaymentLog, error) {
	if req.TwitterID == "" {
		return nil, fmt.Errorf("twitterId required")
	}
	ts, err := time.Parse(time.RFC3339Nano, req.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}
	entry := &model.PaymentLog{
		Type:             req.Type,
		TwitterID:        req.TwitterID,
		RecipientAddress: req.RecipientAddress,
		TxHash:           req.TxHash,
		Amount:           req.Amount,
		Network:          req.Network,
		Success:          req.Success,
		Error:            req.Error,
		Timestamp:        ts,
	}
	if entry.Type == "" {
		entry.Type = "reward"
	}
	if err := u.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("store payment log: %w", err)
	}
	return entry, nil
}

func (u *paymentLogUsecase) List(ctx context.Context, twitterID string, limit int) ([]model.PaymentLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return u.repo.ListByTwitterID(ctx, twitterID, limit)
}
