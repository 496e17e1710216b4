package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/proxy"
)

// UserIDKey is the gin context key holding the caller's user id.
const UserIDKey = "user_id"

// RequireUser rejects requests without an x-user-id header.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(proxy.HeaderUserID))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": proxy.ErrUnauthenticated.Error()})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the id stored by RequireUser.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
