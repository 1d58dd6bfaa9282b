package middleware

import (
	"net/http"

	"solver-rebalancer/pkg/apperror"
	"solver-rebalancer/pkg/response"

	"github.com/gin-gonic/gin"
)

// MaxBodySize caps admin request bodies. A declared Content-Length over the
// cap is refused before the handler runs; an undeclared one fails on read.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, apperror.New("SYS_003", apperror.KindValidation,
				"Request body too large", http.StatusRequestEntityTooLarge))
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
