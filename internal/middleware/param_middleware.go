package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ValidateProviderParam extracts and validates the :provider URL parameter
// against the configured provider names, storing it in the gin context under
// "provider".
func ValidateProviderParam(allowed []string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = struct{}{}
	}

	return func(c *gin.Context) {
		name := strings.ToLower(c.Param("provider"))
		if _, ok := allowedSet[name]; !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "Resource not found", "errors": gin.H{"provider": "Unsupported provider"}})
			c.Abort()
			return
		}
		c.Set("provider", name)
		c.Next()
	}
}
