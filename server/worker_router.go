package server

import (
	httpHandler "social-reward-engine/interfaces/http"
	"social-reward-engine/interfaces/middleware"

	"github.com/gin-gonic/gin"
)

// InitiateWorkerRouter exposes the settlement worker. apiKey, when set, must
// accompany every reward request.
func InitiateWorkerRouter(apiKey string, healthHandler httpHandler.IHealthHandler, rewardHandler httpHandler.IRewardHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", healthHandler.Healthz)
	router.POST("/reward/:twitterId", middleware.ServiceAPIKey(apiKey), rewardHandler.Reward)

	return router
}
