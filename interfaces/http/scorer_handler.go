package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"social-reward-engine/usecase"
)

type IScorerHandler interface {
	Status(c *gin.Context)
	Stats(c *gin.Context)
	Health(c *gin.Context)
	Trigger(c *gin.Context)
	ScorePost(c *gin.Context)
}

type ScorerHandler struct {
	scoringUsecase usecase.IScoringUsecase
	passTimeout    time.Duration
}

func NewScorerHandler(scoringUsecase usecase.IScoringUsecase, passTimeout time.Duration) IScorerHandler {
	return &ScorerHandler{scoringUsecase: scoringUsecase, passTimeout: passTimeout}
}

func (h *ScorerHandler) Status(c *gin.Context) {
	state, err := h.scoringUsecase.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *ScorerHandler) Stats(c *gin.Context) {
	stats, err := h.scoringUsecase.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Health probes the scoring service.
func (h *ScorerHandler) Health(c *gin.Context) {
	if err := h.scoringUsecase.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "unhealthy",
			"configured": h.scoringUsecase.Configured(),
			"error":      err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "configured": true})
}

func (h *ScorerHandler) Trigger(c *gin.Context) {
	c.JSON(http.StatusOK, usecase.Trigger(c.Request.Context(), h.scoringUsecase, h.passTimeout, "Scored %d posts"))
}

func (h *ScorerHandler) ScorePost(c *gin.Context) {
	post, err := h.scoringUsecase.ScorePostByID(c.Request.Context(), c.Param("tweetId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "post": post})
}
