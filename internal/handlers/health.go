// internal/handlers/health.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	database Pinger
	redis    *redis.Client
	version  string
}

// NewHealthHandler builds the health check. redisClient may be nil when the
// in-memory revocation list is used.
func NewHealthHandler(database Pinger, redisClient *redis.Client, version string) *HealthHandler {
	return &HealthHandler{database: database, redis: redisClient, version: version}
}

// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}

	if err := h.database.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		checks["database"] = err.Error()
	} else {
		checks["database"] = "ok"
	}

	switch {
	case h.redis == nil:
		checks["redis"] = "disabled"
	case h.redis.Ping(ctx).Err() != nil:
		status = http.StatusServiceUnavailable
		checks["redis"] = "unreachable"
	default:
		checks["redis"] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":  state,
		"version": h.version,
		"checks":  checks,
	})
}
