package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes refuses declared oversize bodies up front and caps the rest
// while they are read.
func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.ContentLength > max {
			abortWithError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
			return
		}

		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)
		ctx.Next()
	}
}
