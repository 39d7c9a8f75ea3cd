package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/domain/repository"
	"social-reward-engine/infrastructure/logger"
)

// ErrInvalidPayment marks a malformed or unusable X-PAYMENT payload.
var ErrInvalidPayment = errors.New("invalid payment payload")

// FacilitatorError carries the facilitator's rejection reason.
type FacilitatorError struct {
	Reason string
}

func (e *FacilitatorError) Error() string { return "settlement rejected: " + e.Reason }

// ISettlementExecutor runs on the worker. It binds an authorization to the
// recipient registered for an author and has the facilitator execute it.
type ISettlementExecutor interface {
	Reward(ctx context.Context, twitterID, encodedPayment string) (*dto.RewardResponse, error)
	// Wait blocks until in-flight audit log deliveries finish.
	Wait()
}

type SettlementConfig struct {
	Network    string
	Asset      string
	LogTimeout time.Duration
}

type settlementExecutor struct {
	wallets     repository.IWalletLookup
	facilitator repository.IFacilitator
	sink        repository.IPaymentLogSink
	cfg         SettlementConfig
	now         func() time.Time
	inflight    sync.WaitGroup
}

func NewSettlementExecutor(wallets repository.IWalletLookup, facilitator repository.IFacilitator, sink repository.IPaymentLogSink, cfg SettlementConfig) ISettlementExecutor {
	if cfg.LogTimeout <= 0 {
		cfg.LogTimeout = 10 * time.Second
	}
	return &settlementExecutor{wallets: wallets, facilitator: facilitator, sink: sink, cfg: cfg, now: time.Now}
}

func (e *settlementExecutor) Reward(ctx context.Context, twitterID, encodedPayment string) (*dto.RewardResponse, error) {
	lg := logger.GetLogger().WithField("twitter_id", twitterID)

	payload, err := dto.DecodePaymentPayload(encodedPayment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayment, err)
	}
	if err := e.checkPayload(payload); err != nil {
		return nil, err
	}
	network := payload.Network
	if network == "" {
		network = e.cfg.Network
	}

	recipient, err := e.wallets.GetWallet(ctx, twitterID, network)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			err = model.ErrWalletNotFound
		}
		lg.WithField("error", err.Error()).Warn("recipient lookup failed")
		return nil, err
	}

	req := dto.SettleRequest{
		X402Version:    1,
		PaymentPayload: *payload,
		PaymentRequirements: dto.PaymentRequirements{
			Scheme:            "exact",
			Network:           network,
			MaxAmountRequired: payload.Payload.Authorization.Value,
			Resource:          "reward://" + recipient,
			Description:       "Social reward payment",
			MimeType:          "application/json",
			PayTo:             recipient,
			MaxTimeoutSeconds: 60,
			Asset:             e.asset(payload),
		},
	}

	res, err := e.facilitator.Settle(ctx, req)
	if err == nil && !res.Success {
		reason := res.ErrorReason
		if reason == "" {
			reason = "unknown facilitator error"
		}
		err = &FacilitatorError{Reason: reason}
	}
	if err == nil && res.Transaction == "" {
		err = &FacilitatorError{Reason: "no transaction reference returned"}
	}

	entry := dto.PaymentLogRequest{
		Type:             "reward",
		TwitterID:        twitterID,
		RecipientAddress: &recipient,
		Amount:           payload.Payload.Authorization.Value,
		Network:          network,
		Timestamp:        e.now().UTC().Format(time.RFC3339Nano),
	}
	if err != nil {
		msg := err.Error()
		entry.Error = &msg
		e.logAsync(entry)
		lg.WithField("error", msg).Warn("settlement failed")
		return nil, err
	}

	entry.Success = true
	entry.TxHash = &res.Transaction
	e.logAsync(entry)
	lg.WithField("tx_hash", res.Transaction).Info("settlement completed")
	return &dto.RewardResponse{Success: true, TxHash: res.Transaction, Network: network}, nil
}

func (e *settlementExecutor) checkPayload(p *dto.PaymentPayload) error {
	auth := p.Payload.Authorization
	if p.Scheme != "" && p.Scheme != "exact" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidPayment, p.Scheme)
	}
	if p.Payload.Signature == "" || auth.From == "" || auth.Value == "" {
		return fmt.Errorf("%w: missing signature, payer or value", ErrInvalidPayment)
	}
	validBefore, err := strconv.ParseInt(auth.ValidBefore, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: validBefore %q", ErrInvalidPayment, auth.ValidBefore)
	}
	if validBefore <= e.now().Unix() {
		return model.ErrAuthorizationExpiry
	}
	return nil
}

func (e *settlementExecutor) asset(p *dto.PaymentPayload) string {
	if p.Payload.Authorization.Token != "" {
		return p.Payload.Authorization.Token
	}
	return e.cfg.Asset
}

// logAsync delivers the audit entry without holding up the caller.
func (e *settlementExecutor) logAsync(entry dto.PaymentLogRequest) {
	if e.sink == nil {
		return
	}
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.LogTimeout)
		defer cancel()
		if err := e.sink.LogPayment(ctx, entry); err != nil {
			logger.GetLogger().WithField("twitter_id", entry.TwitterID).WithField("error", err.Error()).Warn("failed to deliver payment log")
		}
	}()
}

func (e *settlementExecutor) Wait() { e.inflight.Wait() }
