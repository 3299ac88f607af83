package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yonima/shell/internal/token"
)

const errUnauthorized = "Unauthorized"

// TokenParser validates a session token.
type TokenParser interface {
	Parse(raw string) (token.Claims, error)
}

// Auth validates a Bearer session token and sets "phone" and "deviceID" in
// the gin context.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		claims, err := parser.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		c.Set("phone", claims.Phone)
		c.Set("deviceID", claims.DeviceID)
		c.Next()
	}
}
