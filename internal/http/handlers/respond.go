package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString("request_id"); s != "" {
		return s
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondData(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"success": false,
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondUnAuthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, "unauthorized", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// RespondErr maps a repository error onto the error envelope. Internal
// failures are logged here, once, and answered with fallback.
func RespondErr(ctx *gin.Context, log *slog.Logger, err error, fallback string) {
	var inputErr *errs.InputError
	var ruleErr *errs.RuleViolation

	switch {
	case errors.As(err, &ruleErr):
		RespondError(ctx, http.StatusBadRequest, "rule_violation", ruleErr.Message, gin.H{"rule": ruleErr.Rule})
	case errors.As(err, &inputErr):
		RespondBadRequest(ctx, inputErr.Error(), gin.H{
			"fields": []FieldError{{Field: inputErr.Field, Rule: "invalid", Message: inputErr.Message}},
		})
	case errors.Is(err, errs.ErrInvalidInput):
		RespondBadRequest(ctx, err.Error(), nil)
	case errors.Is(err, errs.ErrNotFound):
		RespondNotFound(ctx, notFoundMessage(err))
	default:
		if log == nil {
			log = slog.Default()
		}
		_ = ctx.Error(err)
		log.ErrorContext(ctx.Request.Context(), fallback,
			"err", err,
			"request_id", requestIDFrom(ctx),
		)
		RespondInternal(ctx, fallback)
	}
}

// "event not found" -> "Event not found"
func notFoundMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return "Not found"
	}
	if c := msg[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + msg[1:]
	}
	return msg
}
