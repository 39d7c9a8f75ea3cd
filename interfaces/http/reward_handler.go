package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/usecase"
)

const HeaderPayment = "X-PAYMENT"

// IRewardHandler is the worker's settlement endpoint.
type IRewardHandler interface {
	Reward(c *gin.Context)
}

type RewardHandler struct {
	executor usecase.ISettlementExecutor
}

func NewRewardHandler(executor usecase.ISettlementExecutor) IRewardHandler {
	return &RewardHandler{executor: executor}
}

func (h *RewardHandler) Reward(c *gin.Context) {
	payment := c.GetHeader(HeaderPayment)
	if payment == "" {
		c.JSON(http.StatusBadRequest, dto.RewardResponse{Error: "Missing X-PAYMENT header"})
		return
	}

	res, err := h.executor.Reward(c.Request.Context(), c.Param("twitterId"), payment)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, model.ErrWalletNotFound) {
			msg = "User wallet not found"
		}
		c.JSON(statusFor(err), dto.RewardResponse{Error: msg})
		return
	}
	c.JSON(http.StatusOK, res)
}
