package server

import (
	"time"

	httpHandler "social-reward-engine/interfaces/http"
	"social-reward-engine/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig carries the settings the backend router needs from config.
type RouterConfig struct {
	AllowOrigins  []string
	SecretKey     string
	ServiceAPIKey string
}

func InitiateRouter(
	cfg RouterConfig,
	healthHandler httpHandler.IHealthHandler,
	fetcherHandler httpHandler.IFetcherHandler,
	scorerHandler httpHandler.IScorerHandler,
	payoutHandler httpHandler.IPayoutHandler,
	configHandler httpHandler.IConfigHandler,
	postHandler httpHandler.IPostHandler,
	claimHandler httpHandler.IClaimHandler,
	x402Handler httpHandler.IX402Handler,
	events gin.HandlerFunc,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.AllowOrigins)))

	admin := middleware.AdminAuth(cfg.SecretKey)
	service := middleware.ServiceAPIKey(cfg.ServiceAPIKey)

	router.GET("/healthz", healthHandler.Healthz)

	fetcher := router.Group("/fetcher")
	{
		fetcher.GET("/status", fetcherHandler.Status)
		fetcher.GET("/stats", fetcherHandler.Stats)
		fetcher.GET("/health", fetcherHandler.Health)
		fetcher.GET("/posts", fetcherHandler.ListPosts)
		fetcher.POST("/trigger", admin, fetcherHandler.Trigger)
	}

	scorer := router.Group("/scorer")
	{
		scorer.GET("/status", scorerHandler.Status)
		scorer.GET("/stats", scorerHandler.Stats)
		scorer.GET("/health", scorerHandler.Health)
		scorer.POST("/trigger", admin, scorerHandler.Trigger)
		scorer.POST("/posts/:tweetId/score", admin, scorerHandler.ScorePost)
	}

	payout := router.Group("/payout")
	{
		payout.GET("/status", payoutHandler.Status)
		payout.GET("/stats", payoutHandler.Stats)
		payout.GET("/health", payoutHandler.Health)
		payout.GET("/history", payoutHandler.History)
		payout.GET("/history/export", admin, payoutHandler.ExportHistory)
		payout.POST("/trigger", admin, payoutHandler.Trigger)
		payout.POST("/requeue/:tweetId", admin, payoutHandler.Requeue)
	}

	router.GET("/config/reward", configHandler.GetRewardPolicy)
	router.PUT("/config/reward", admin, configHandler.UpdateRewardPolicy)

	router.GET("/posts/:tweetId", postHandler.GetPost)
	router.POST("/claim/:tweetId", claimHandler.Claim)
	router.GET("/claim/:tweetId/status", claimHandler.Status)

	x402 := router.Group("/x402")
	{
		x402.GET("/user/:twitterId/wallet", service, x402Handler.GetWallet)
		// Linking decides where payouts go, so only the claim UI backend may do it.
		x402.POST("/user/:twitterId/wallet", service, x402Handler.SetWallet)
		x402.GET("/user/:twitterId/wallets", x402Handler.ListWallets)
		x402.GET("/user/:twitterId/payment-logs", service, x402Handler.ListPaymentLogs)
		x402.POST("/payment-log", service, x402Handler.RecordPaymentLog)
	}

	if events != nil {
		router.GET("/events/payouts", admin, events)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.HeaderAPIKey},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
