package middleware

import (
	"net/http"

	apperrors "github.com/gatherly/notification-engine/internal/shared/errors"
	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the authenticated user id. Authentication itself is
// delegated to the external auth provider; the API gateway verifies the
// session and injects this header before requests reach the engine.
const UserIDHeader = "X-User-ID"

const userIDKey = "user_id"

// RequireUser rejects requests that arrive without an authenticated user
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, apperrors.NewUnauthorizedError("missing authenticated user", nil))
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// MustGetUserID returns the authenticated user id set by RequireUser
func MustGetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
