package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"social-reward-engine/domain/dto"
	"social-reward-engine/infrastructure/logger"
	"social-reward-engine/usecase"
)

type IFetcherHandler interface {
	Status(c *gin.Context)
	Stats(c *gin.Context)
	Health(c *gin.Context)
	ListPosts(c *gin.Context)
	Trigger(c *gin.Context)
}

type FetcherHandler struct {
	ingestUsecase usecase.IIngestUsecase
	postUsecase   usecase.IPostUsecase
	passTimeout   time.Duration
}

func NewFetcherHandler(ingestUsecase usecase.IIngestUsecase, postUsecase usecase.IPostUsecase, passTimeout time.Duration) IFetcherHandler {
	return &FetcherHandler{ingestUsecase: ingestUsecase, postUsecase: postUsecase, passTimeout: passTimeout}
}

func (h *FetcherHandler) Status(c *gin.Context) {
	state, err := h.ingestUsecase.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *FetcherHandler) Stats(c *gin.Context) {
	stats, err := h.ingestUsecase.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *FetcherHandler) Health(c *gin.Context) {
	configured := h.ingestUsecase.Configured()
	status := "ok"
	if !configured {
		status = "not_configured"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "configured": configured})
}

func (h *FetcherHandler) ListPosts(c *gin.Context) {
	var req dto.PostListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.postUsecase.ListPosts(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *FetcherHandler) Trigger(c *gin.Context) {
	c.JSON(http.StatusOK, usecase.Trigger(c.Request.Context(), h.ingestUsecase, h.passTimeout, "Crawled %d mentions"))
}
