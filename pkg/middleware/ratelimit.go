package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "form-intake/pkg/errors"
)

// RateLimit rejects requests beyond the shared token bucket with 429.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := limiter.Reserve()
		if !r.OK() {
			reject(c, time.Second)
			return
		}
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			reject(c, delay)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(int(limiter.Limit())))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(math.Max(0, limiter.Tokens()))))
		c.Next()
	}
}

func reject(c *gin.Context, wait time.Duration) {
	rateLimitRejects.Inc()
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	AbortWithError(c, http.StatusTooManyRequests, apperrors.ErrCodeRateLimitExceeded, "Rate limit exceeded")
}
