package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

var registerJSONNames sync.Once

// useJSONNames makes validator namespaces carry json tag names, so
// rules.allowedWeekDays[1] comes out as sent instead of Rules.AllowedWeekDays[1].
func useJSONNames() {
	registerJSONNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(sf reflect.StructField) string {
			name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
			switch name {
			case "-":
				return ""
			case "":
				return sf.Name
			}
			return name
		})
	})
}

// BindJSON decodes and validates the body into out. On failure it has
// already written the error response and the handler should just return.
func BindJSON(ctx *gin.Context, out any) bool {
	useJSONNames()

	err := ctx.ShouldBindJSON(out)
	if err == nil {
		return true
	}

	var (
		tooLarge  *http.MaxBytesError
		invalid   validator.ValidationErrors
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &tooLarge):
		RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large", nil)
	case errors.Is(err, io.EOF):
		RespondBadRequest(ctx, "Request body is required", nil)
	case errors.As(err, &invalid):
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": validationFields(invalid)})
	case errors.As(err, &syntaxErr):
		RespondBadRequest(ctx, "Invalid request body", gin.H{"json": "invalid_json_syntax"})
	case errors.As(err, &typeErr):
		// Field is already the json path, e.g. "rules.fixedCapacity"
		field := strings.TrimSpace(typeErr.Field)
		RespondBadRequest(ctx, "Invalid request body", gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{{
				Field:   field,
				Rule:    "type",
				Message: "must be of type " + typeErr.Type.String(),
			}},
		})
	default:
		RespondBadRequest(ctx, "Invalid request body", gin.H{"reason": err.Error()})
	}

	return false
}

func validationFields(invalid validator.ValidationErrors) []FieldError {
	fields := make([]FieldError, 0, len(invalid))
	for _, fe := range invalid {
		fields = append(fields, FieldError{
			Field:   fieldPath(fe),
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Message: validationMessage(fe.Tag(), fe.Param()),
		})
	}
	return fields
}

// fieldPath drops the root struct name: "CreateEventRequest.title" -> "title".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok && rest != "" {
		return rest
	}
	return fe.Field()
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
