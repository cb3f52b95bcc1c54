package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joakimtj/eventdesk/internal/auth"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return raw, raw != ""
}

func setIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set(ctxSubjectKey, claims.Subject)
	c.Set(ctxEmailKey, claims.Email)
	c.Set(ctxRoleKey, claims.Role)
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired access token")
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth records the caller's identity when a valid token is present
// and lets anonymous requests through untouched. A bad token is ignored.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if claims, err := m.jwt.VerifyAccessToken(raw); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

func SubjectFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxSubjectKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func RoleFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}

func IsAdmin(c *gin.Context) bool {
	role, ok := RoleFromContext(c)
	return ok && role == auth.RoleAdmin
}
