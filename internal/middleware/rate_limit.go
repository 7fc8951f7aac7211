package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
	// Name labels rejections in metrics
	Name string
}

// RateLimiter is a fixed-window counter stored in Redis
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
	}
}

// NewRecipeCreationRateLimiter limits recipe creation per user
func NewRecipeCreationRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    window,
		Limit:     limit,
		KeyPrefix: "rate_limit:recipe_creation",
		Name:      "recipe_creation",
	})
}

// RateLimitMiddleware returns a Gin middleware that enforces rate limiting.
// Authenticated requests are keyed by user, the rest by client IP. Redis
// failures are logged and the request is let through.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := "ip:" + c.ClientIP()
		if uid := UserID(c); uid != 0 {
			subject = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		allowed, remaining, resetTime, err := rl.IsAllowed(c.Request.Context(), subject)
		if err != nil {
			logging.Ctx(c.Request.Context()).Warn().Err(err).Str("limiter", rl.config.Name).Msg("rate limit check failed")
			c.Next()
			return
		}

		// Set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			metrics.RateLimitRejections.WithLabelValues(rl.config.Name).Inc()
			retryAfter := int(time.Until(resetTime).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": fmt.Sprintf("Request was throttled. Limit is %d requests per %v.", rl.config.Limit, rl.config.Window),
			})
			return
		}

		c.Next()
	}
}

// IsAllowed counts a request from subject in the current window
// Returns: allowed, remaining requests, reset time, error
func (rl *RateLimiter) IsAllowed(ctx context.Context, subject string) (bool, int, time.Time, error) {
	windowStart := time.Now().Truncate(rl.config.Window)
	key := rl.key(subject, windowStart)

	// Use Redis pipeline for atomic operations
	pipe := rl.redis.TxPipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.config.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(incrCmd.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	resetTime := windowStart.Add(rl.config.Window)
	return count <= rl.config.Limit, remaining, resetTime, nil
}

// Remaining returns the requests left for subject without counting one
func (rl *RateLimiter) Remaining(ctx context.Context, subject string) (int, time.Time, error) {
	windowStart := time.Now().Truncate(rl.config.Window)
	resetTime := windowStart.Add(rl.config.Window)

	count, err := rl.redis.Get(ctx, rl.key(subject, windowStart)).Int()
	if errors.Is(err, redis.Nil) {
		return rl.config.Limit, resetTime, nil
	}
	if err != nil {
		return 0, time.Time{}, err
	}

	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, resetTime, nil
}

func (rl *RateLimiter) key(subject string, windowStart time.Time) string {
	return fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, subject, windowStart.Unix())
}
