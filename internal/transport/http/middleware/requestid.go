package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yonima/shell/internal/requestid"
)

// RequestID keeps a usable incoming X-Request-ID and otherwise generates
// one, then stores it in the request context and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestid.Header)
		if !requestid.Usable(id) {
			id = requestid.New()
		}

		c.Request = c.Request.WithContext(requestid.WithRequestID(c.Request.Context(), id))
		c.Header(requestid.Header, id)
		c.Next()
	}
}
