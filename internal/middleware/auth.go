package middleware

import (
	"net/http"
	"strings"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/pkg/apperr"
	"github.com/carecollective/careconnect/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// AuthRequired validates the Bearer token, rejects revoked tokens, and
// stashes the caller's identity in the context.
func AuthRequired(jwtManager *auth.JWTManager, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			unauthorized(c, "Authorization header required")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		// Logged-out tokens sit in the blacklist until they expire
		blacklisted, err := redisClient.Exists(c.Request.Context(), "careconnect:blacklist:"+token).Result()
		if err == nil && blacklisted > 0 {
			unauthorized(c, "Token has been revoked")
			return
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_name", claims.Name)
		c.Set("is_admin", claims.IsAdmin)
		c.Next()
	}
}

// AdminRequired gates moderator-only routes. Must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin, ok := c.Get("is_admin")
		if !ok || !isAdmin.(bool) {
			c.AbortWithStatusJSON(http.StatusForbidden, model.ErrorResponse{
				Error: "Moderator access required",
				Code:  string(apperr.CodePermissionDenied),
			})
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
		Error: msg,
		Code:  string(apperr.CodeUnauthenticated),
	})
}
