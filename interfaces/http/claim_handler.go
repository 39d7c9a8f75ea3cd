package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"social-reward-engine/usecase"
)

type IClaimHandler interface {
	Status(c *gin.Context)
	Claim(c *gin.Context)
}

type ClaimHandler struct {
	claimUsecase usecase.IClaimUsecase
}

func NewClaimHandler(claimUsecase usecase.IClaimUsecase) IClaimHandler {
	return &ClaimHandler{claimUsecase: claimUsecase}
}

func (h *ClaimHandler) Status(c *gin.Context) {
	res, err := h.claimUsecase.Status(c.Request.Context(), c.Param("tweetId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Claim reports settlement failures in the body with 200, only refusals
// before any payout is attempted map to an error status.
func (h *ClaimHandler) Claim(c *gin.Context) {
	res, err := h.claimUsecase.Claim(c.Request.Context(), c.Param("tweetId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
