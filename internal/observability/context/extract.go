package context

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// RequestIDFromGin prefers the id on the request context and falls back to
// the one the logging middleware stored on the gin context.
func RequestIDFromGin(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if c.Request != nil {
		if id := RequestIDFromContext(c.Request.Context()); id != "" {
			return id
		}
	}
	return strings.TrimSpace(c.GetString("request_id"))
}
