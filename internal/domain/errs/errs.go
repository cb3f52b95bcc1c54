// Package errs holds the error taxonomy shared by every entity package.
// Handlers only ever branch on the three sentinels below.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrRuleViolation = errors.New("rule violation")
)

// NotFound builds an entity specific sentinel, e.g. "event not found".
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func Invalid(field, message string) error {
	return &InputError{Field: field, Message: message}
}

// RuleViolation is returned when a business rule refuses an otherwise well formed request.
type RuleViolation struct {
	Rule    string
	Message string
}

func (e *RuleViolation) Error() string {
	return e.Message
}

func (e *RuleViolation) Is(target error) bool {
	return target == ErrRuleViolation
}

func Violation(rule, format string, args ...any) error {
	return &RuleViolation{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// Rule names used across packages.
const (
	RuleAllowedWeekdays = "allowed_weekdays"
	RuleNoSameDayEvents = "no_same_day_events"
	RuleSlugTaken       = "slug_taken"
	RuleTemplateInUse   = "template_in_use"
)
