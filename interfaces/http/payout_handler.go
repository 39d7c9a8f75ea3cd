package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/infrastructure/filecsv"
	"social-reward-engine/infrastructure/logger"
	"social-reward-engine/usecase"
)

// exportMaxPages bounds a CSV export to exportMaxPages*100 rows.
const exportMaxPages = 100

type IPayoutHandler interface {
	Status(c *gin.Context)
	Stats(c *gin.Context)
	Health(c *gin.Context)
	History(c *gin.Context)
	ExportHistory(c *gin.Context)
	Trigger(c *gin.Context)
	Requeue(c *gin.Context)
}

type PayoutHandler struct {
	payoutUsecase usecase.IPayoutUsecase
	passTimeout   time.Duration
}

func NewPayoutHandler(payoutUsecase usecase.IPayoutUsecase, passTimeout time.Duration) IPayoutHandler {
	return &PayoutHandler{payoutUsecase: payoutUsecase, passTimeout: passTimeout}
}

func (h *PayoutHandler) Status(c *gin.Context) {
	state, err := h.payoutUsecase.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *PayoutHandler) Stats(c *gin.Context) {
	stats, err := h.payoutUsecase.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *PayoutHandler) Health(c *gin.Context) {
	configured := h.payoutUsecase.Configured()
	status := "ok"
	if !configured {
		status = "not_configured"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"configured":   configured,
		"network":      h.payoutUsecase.Network(),
		"payerAddress": h.payoutUsecase.PayerAddress(),
	})
}

func (h *PayoutHandler) History(c *gin.Context) {
	var req dto.PayoutHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.payoutUsecase.History(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ExportHistory streams the payout history, newest first, as CSV.
func (h *PayoutHandler) ExportHistory(c *gin.Context) {
	var records []model.PayoutRecord
	for page := 1; page <= exportMaxPages; page++ {
		res, err := h.payoutUsecase.History(c.Request.Context(), dto.PayoutHistoryRequest{Page: page, Limit: 100})
		if err != nil {
			respondError(c, err)
			return
		}
		records = append(records, res.Payouts...)
		if int64(page) >= res.Pagination.TotalPages {
			break
		}
	}

	filename := fmt.Sprintf("payouts-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := filecsv.WritePayouts(c.Writer, records); err != nil {
		logger.GetLogger().WithField("error", err.Error()).Error("failed to write payout export")
	}
}

func (h *PayoutHandler) Trigger(c *gin.Context) {
	c.JSON(http.StatusOK, usecase.Trigger(c.Request.Context(), h.payoutUsecase, h.passTimeout, "Processed %d payouts"))
}

func (h *PayoutHandler) Requeue(c *gin.Context) {
	tweetID := c.Param("tweetId")
	if err := h.payoutUsecase.Requeue(c.Request.Context(), tweetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": fmt.Sprintf("Post %s re-queued for payout", tweetID)})
}
