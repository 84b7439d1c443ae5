package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docstore-platform/utils"
)

// RequestSizeLimit rejects requests whose body exceeds maxSize bytes.
// Loader uploads arrive base64-encoded in the JSON body, so the limit bounds
// upload size too.
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge,
				"request_too_large",
				"Request body exceeds maximum size",
				gin.H{
					"max_size": maxSize,
					"received": c.Request.ContentLength,
				})
			c.Abort()
			return
		}
		c.Next()
	}
}
