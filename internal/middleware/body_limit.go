package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"order-board/internal/models"
)

// BodyLimit caps request bodies at maxBytes. Requests that announce a larger
// Content-Length are rejected up front; the rest fail while the handler reads.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Error: "request body too large",
			})
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
