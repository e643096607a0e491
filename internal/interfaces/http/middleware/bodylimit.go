package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps the request body size. The hub runs two caps: a general one
// for the admin API and a tighter one on the webhook group, since marketplace
// webhook payloads are small and an oversized one is hostile by definition.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Declared length is checked up front; chunked bodies are caught by
		// the limited reader when a handler reads past the cap
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_PAYLOAD_TOO_LARGE",
					"message": "Request body exceeds the maximum allowed size",
				},
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
