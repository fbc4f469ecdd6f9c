package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/accounts-api/pkg/auth"
	"github.com/yourusername/accounts-api/pkg/auth/manager"
)

// AuthMiddleware authenticates requests with a Bearer access token.
type AuthMiddleware struct {
	tokenManager *manager.TokenManager
}

func NewAuthMiddleware(tokenManager *manager.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tokenManager}
}

// RequireAuth verifies the Authorization header and puts the caller's
// identity into the gin context under "user_id", "email" and "is_admin".
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed", "errors": gin.H{"detail": "Authorization header is required"}})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed", "errors": gin.H{"detail": "Authorization header format must be Bearer {token}"}})
			c.Abort()
			return
		}

		claims, err := m.tokenManager.VerifyToken(parts[1])
		if err != nil || claims.TokenType != auth.TokenTypeAccess {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed", "errors": gin.H{"detail": "Invalid or expired token"}})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("is_admin", claims.IsAdmin)

		c.Next()
	}
}

// OptionalAuth resolves the caller when a valid token is present but lets
// anonymous requests through. Registration uses it to record created_by for
// admin-created accounts.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}
		claims, err := m.tokenManager.VerifyToken(parts[1])
		if err != nil || claims.TokenType != auth.TokenTypeAccess {
			c.Next()
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("is_admin", claims.IsAdmin)
		c.Next()
	}
}

// AdminOnly allows only accounts with the admin flag. Must run after
// RequireAuth.
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("user_id"); !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed"})
			c.Abort()
			return
		}

		isAdmin, exists := c.Get("is_admin")
		if !exists || !isAdmin.(bool) {
			c.JSON(http.StatusForbidden, gin.H{"message": "Permission denied", "errors": gin.H{"detail": "Admin rights required"}})
			c.Abort()
			return
		}

		c.Next()
	}
}
