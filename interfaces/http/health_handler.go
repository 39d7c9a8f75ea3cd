package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type IHealthHandler interface {
	Healthz(c *gin.Context)
}

type HealthHandler struct {
	Service string
}

func NewHealthHandler(service string) IHealthHandler {
	return &HealthHandler{Service: service}
}

// Healthz returns OK for health checks
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   h.Service,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
