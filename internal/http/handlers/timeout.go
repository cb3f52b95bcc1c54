package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	readTimeout  = 2 * time.Second
	writeTimeout = 3 * time.Second
)

// requestContext bounds store and cache calls for one request. It derives
// from the request context, so a client that goes away cancels the query too.
func requestContext(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}
