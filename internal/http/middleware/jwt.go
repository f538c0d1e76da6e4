package middleware

import (
	"net/http"
	"strings"

	"arena_client/internal/service"

	"github.com/gin-gonic/gin"
)

// IdentityKey - gin context key holding the token identity
const IdentityKey = "identity"

// JWT accepts "Authorization: Bearer <token>" or ?token= for WebSocket clients
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		identity, err := service.ParseJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// RequireIdentity rejects tokens issued for another player
func RequireIdentity(identity string) gin.HandlerFunc {
	want := strings.ToLower(identity)
	return func(c *gin.Context) {
		if c.GetString(IdentityKey) != want {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token issued for another identity"})
			return
		}
		c.Next()
	}
}
