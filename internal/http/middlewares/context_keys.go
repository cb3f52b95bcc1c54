package middlewares

import (
	"github.com/gin-gonic/gin"
)

// gin context keys
const (
	CtxRequestID = "request_id"

	ctxSubjectKey = "auth.subject"
	ctxEmailKey   = "auth.email"
	ctxRoleKey    = "auth.role"
)

// abortWithError writes the same error envelope the handlers use.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": c.GetString(CtxRequestID),
		},
	})
}
