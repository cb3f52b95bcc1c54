package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joakimtj/eventdesk/internal/auth"
	"github.com/joakimtj/eventdesk/internal/security"
)

type TokenIssuer interface {
	GenerateAccessToken(subject, email, role string) (string, error)
}

// AdminCredentials is the single configured administrator.
type AdminCredentials struct {
	Email        string
	PasswordHash string
}

type AuthHandler struct {
	admin AdminCredentials
	jwt   TokenIssuer
	ttl   int
	log   *slog.Logger
}

func NewAuthHandler(admin AdminCredentials, jwt TokenIssuer, ttlSeconds int, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	return &AuthHandler{admin: admin, jwt: jwt, ttl: ttlSeconds, log: log}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(h.admin.Email)) == 1

	// bcrypt runs even when the email is wrong
	passwordOK := h.admin.PasswordHash != "" && security.CheckPassword(h.admin.PasswordHash, req.Password) == nil

	if !emailOK || !passwordOK {
		h.log.InfoContext(ctx.Request.Context(), "login rejected", "request_id", requestIDFrom(ctx))
		RespondUnAuthorized(ctx, "Email or password is incorrect.")
		return
	}

	token, err := h.jwt.GenerateAccessToken(auth.RoleAdmin, h.admin.Email, auth.RoleAdmin)
	if err != nil {
		RespondErr(ctx, h.log, err, "Could not generate access token")
		return
	}

	RespondData(ctx, http.StatusOK, gin.H{
		"accessToken": token,
		"tokenType":   "Bearer",
		"expiresIn":   h.ttl,
	})
}
