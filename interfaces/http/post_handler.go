package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"social-reward-engine/usecase"
)

type IPostHandler interface {
	GetPost(c *gin.Context)
}

type PostHandler struct {
	postUsecase usecase.IPostUsecase
}

func NewPostHandler(postUsecase usecase.IPostUsecase) IPostHandler {
	return &PostHandler{postUsecase: postUsecase}
}

func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.postUsecase.GetPost(c.Request.Context(), c.Param("tweetId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}
