// Package middleware provides session authentication for protected routes.
package middleware

import (
	"net/http"

	"barberia_backend/internal/auth/session"
	"barberia_backend/platform/config"

	"github.com/gin-gonic/gin"
)

const sessionUserKey = "sessionUser"

// SessionAuth resolves the session cookie into a user and aborts with 401
// when the session is missing or expired.
func SessionAuth(cfg config.SessionConfig, sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cfg.GetSessionCookieName())
		if err != nil || sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		user, err := sessions.Get(c.Request.Context(), sessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		c.Set(sessionUserKey, *user)
		c.Next()
	}
}

// RequireAdmin aborts with 403 unless the session user is an administrator.
// Must run after SessionAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the session user set by SessionAuth.
func CurrentUser(c *gin.Context) (session.User, bool) {
	value, exists := c.Get(sessionUserKey)
	if !exists {
		return session.User{}, false
	}
	user, ok := value.(session.User)
	return user, ok
}
