package middlewares

import (
	"net/http"
	"strings"

	"swachhconnect/utils"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	TokenCookie  = "Bearer"
	ContextRole  = "role"
	ContextUser  = "userID"
	ContextClaim = "claims"
)

func JWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		// Try to get token from Authorization header first (for API clients)
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			// Expecting format: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
				tokenString = parts[1]
			}
		}

		// If not in header, try cookie (for browser)
		if tokenString == "" {
			tokenCookie, err := c.Request.Cookie(TokenCookie)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Authorization token required",
				})
				return
			}
			tokenString = tokenCookie.Value
		}

		claims, err := utils.ParseToken(secret, tokenString)
		if err != nil {
			log.WithError(err).Debug("Rejected token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ContextRole, claims.Role)
		c.Set(ContextUser, claims.UserID)
		c.Set(ContextClaim, claims)

		c.Next()
	}
}

// RequireRole must run after JWT.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user role not found"})
			return
		}
		if ok, err := utils.AuthorizeUser(role, roles...); err != nil || !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "User unauthorized"})
			return
		}
		c.Next()
	}
}
