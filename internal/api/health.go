package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
)

// HealthHandler reports liveness and dependency reachability
type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewHealthHandler(db *gorm.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// HealthCheck returns 200 when the database answers. Redis is optional and
// only reported.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{"database": "ok"}
	if err := database.HealthCheck(ctx, h.db); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("database health check failed")
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if h.redis == nil {
		checks["redis"] = "disabled"
	} else if err := h.redis.Ping(ctx).Err(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("redis health check failed")
		checks["redis"] = "unavailable"
	} else {
		checks["redis"] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{"status": overall, "checks": checks})
}
