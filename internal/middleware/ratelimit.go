package middleware

import (
	"net/http"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/internal/ratelimit"
	"github.com/carecollective/careconnect/pkg/apperr"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RateLimit throttles authenticated requests per user. Must run after
// AuthRequired.
func RateLimit(limiter *ratelimit.UserLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.MustGet("user_id").(uuid.UUID)
		if !limiter.Allow(userID) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.ErrorResponse{
				Error: "Too many requests, slow down",
				Code:  string(apperr.CodeRateLimited),
			})
			return
		}
		c.Next()
	}
}
