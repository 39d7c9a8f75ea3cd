package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"social-reward-engine/domain/model"
	"social-reward-engine/infrastructure/logger"
	"social-reward-engine/interfaces/middleware"
	"social-reward-engine/usecase"
)

type IConfigHandler interface {
	GetRewardPolicy(c *gin.Context)
	UpdateRewardPolicy(c *gin.Context)
}

type ConfigHandler struct {
	policyUsecase usecase.IRewardPolicyUsecase
}

func NewConfigHandler(policyUsecase usecase.IRewardPolicyUsecase) IConfigHandler {
	return &ConfigHandler{policyUsecase: policyUsecase}
}

func (h *ConfigHandler) GetRewardPolicy(c *gin.Context) {
	policy, err := h.policyUsecase.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

func (h *ConfigHandler) UpdateRewardPolicy(c *gin.Context) {
	var req model.RewardPolicyUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	policy, err := h.policyUsecase.Update(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.GetLogger().WithField("subject", c.GetString(middleware.ContextSubject)).Info("reward policy updated")
	c.JSON(http.StatusOK, policy)
}
