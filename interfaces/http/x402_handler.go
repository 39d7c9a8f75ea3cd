package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/infrastructure/logger"
	"social-reward-engine/usecase"
)

// IX402Handler serves the wallet registry and the payment audit log.
type IX402Handler interface {
	GetWallet(c *gin.Context)
	SetWallet(c *gin.Context)
	ListWallets(c *gin.Context)
	RecordPaymentLog(c *gin.Context)
	ListPaymentLogs(c *gin.Context)
}

type X402Handler struct {
	walletUsecase     usecase.IWalletUsecase
	paymentLogUsecase usecase.IPaymentLogUsecase
}

// NewX402Handler accepts a nil paymentLogUsecase when no SQL store is
// configured. The payment log routes then answer 503.
func NewX402Handler(walletUsecase usecase.IWalletUsecase, paymentLogUsecase usecase.IPaymentLogUsecase) IX402Handler {
	return &X402Handler{walletUsecase: walletUsecase, paymentLogUsecase: paymentLogUsecase}
}

func (h *X402Handler) GetWallet(c *gin.Context) {
	wallet, err := h.walletUsecase.GetWallet(c.Request.Context(), c.Param("twitterId"), c.Query("network"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": dto.WalletResponse{
		TwitterID:     wallet.TwitterID,
		WalletAddress: wallet.WalletAddress,
		Network:       wallet.Network,
	}})
}

func (h *X402Handler) SetWallet(c *gin.Context) {
	var req dto.SetWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wallet, err := h.walletUsecase.SetWallet(c.Request.Context(), c.Param("twitterId"), req.WalletAddress, req.Network)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": wallet})
}

func (h *X402Handler) ListWallets(c *gin.Context) {
	wallets, err := h.walletUsecase.ListWallets(c.Request.Context(), c.Param("twitterId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": wallets})
}

func (h *X402Handler) RecordPaymentLog(c *gin.Context) {
	if h.paymentLogUsecase == nil {
		respondError(c, model.ErrNotConfigured)
		return
	}
	var req dto.PaymentLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TwitterID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "twitterId required"})
		return
	}
	entry, err := h.paymentLogUsecase.Record(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": entry.ID})
}

func (h *X402Handler) ListPaymentLogs(c *gin.Context) {
	if h.paymentLogUsecase == nil {
		respondError(c, model.ErrNotConfigured)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.paymentLogUsecase.List(c.Request.Context(), c.Param("twitterId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if logs == nil {
		logs = []model.PaymentLog{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": logs})
}
