package middleware

import (
	"github.com/gin-gonic/gin"

	applog "github.com/yonima/shell/internal/log"
)

// SessionID puts the :id route parameter into the request context so log
// lines carry session_id.
func SessionID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.Param("id"); id != "" {
			c.Request = c.Request.WithContext(applog.WithSessionID(c.Request.Context(), id))
		}
		c.Next()
	}
}
