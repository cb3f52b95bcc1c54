// Package rules validates candidate event dates against the rule set of the
// template the event is created from.
package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
	"github.com/joakimtj/eventdesk/internal/domain/event"
	"github.com/joakimtj/eventdesk/internal/domain/template"
)

type TemplateGetter interface {
	GetByID(ctx context.Context, id string) (template.Template, error)
}

// SameDayCounter counts events of a template on a calendar day ("2006-01-02"),
// ignoring excludeEventID.
type SameDayCounter interface {
	CountOnDay(ctx context.Context, templateID, day, excludeEventID string) (int, error)
}

type Evaluator struct {
	templates TemplateGetter
	events    SameDayCounter
	log       *slog.Logger
}

func NewEvaluator(templates TemplateGetter, events SameDayCounter, log *slog.Logger) *Evaluator {
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{templates: templates, events: events, log: log}
}

// ValidateEventDate returns a *errs.RuleViolation when date breaks the rules of
// the template. An empty or unknown template id imposes no constraints.
func (e *Evaluator) ValidateEventDate(ctx context.Context, date time.Time, templateID, excludeEventID string) error {
	if templateID == "" {
		return nil
	}

	tpl, err := e.templates.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			e.log.DebugContext(ctx, "rules: template not found, skipping validation", "template_id", templateID)
			return nil
		}
		return fmt.Errorf("load template: %w", err)
	}

	return e.check(ctx, tpl, date, excludeEventID)
}

func (e *Evaluator) check(ctx context.Context, tpl template.Template, date time.Time, excludeEventID string) error {
	r := tpl.Rules

	if !r.AllowsWeekday(date.Weekday()) {
		return errs.Violation(errs.RuleAllowedWeekdays,
			"events from template %q can only be scheduled on %s", tpl.Name, r.AllowedWeekdayNames())
	}

	if r.NoSameDayEvents {
		day := event.Day(date)

		n, err := e.events.CountOnDay(ctx, tpl.ID, day, excludeEventID)
		if err != nil {
			return fmt.Errorf("count same day events: %w", err)
		}
		if n > 0 {
			return errs.Violation(errs.RuleNoSameDayEvents,
				"template %q already has an event on %s", tpl.Name, day)
		}
	}
	return nil
}
