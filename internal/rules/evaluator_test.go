package rules_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
	"github.com/joakimtj/eventdesk/internal/domain/template"
	"github.com/joakimtj/eventdesk/internal/rules"
)

type fakeTemplates map[string]template.Template

func (f fakeTemplates) GetByID(_ context.Context, id string) (template.Template, error) {
	tpl, ok := f[id]
	if !ok {
		return template.Template{}, template.ErrNotFound
	}
	return tpl, nil
}

// fakeEvents maps template id -> day -> event ids on that day
type fakeEvents struct {
	days  map[string]map[string][]string
	calls int
	err   error
}

func (f *fakeEvents) CountOnDay(_ context.Context, templateID, day, exclude string) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, id := range f.days[templateID][day] {
		if id != exclude {
			n++
		}
	}
	return n, nil
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestValidateEventDate_Weekdays(t *testing.T) {
	tpls := fakeTemplates{
		"tpl_1": {ID: "tpl_1", Name: "Workshop", Rules: template.Rules{AllowedWeekDays: []int{1, 3}}},
	}
	ev := rules.NewEvaluator(tpls, &fakeEvents{}, nil)

	// 2025-03-03 is a Monday, 2025-03-04 a Tuesday
	require.NoError(t, ev.ValidateEventDate(context.Background(), date(t, "2025-03-03"), "tpl_1", ""))

	err := ev.ValidateEventDate(context.Background(), date(t, "2025-03-04"), "tpl_1", "")
	require.ErrorIs(t, err, errs.ErrRuleViolation)

	var rv *errs.RuleViolation
	require.True(t, errors.As(err, &rv))
	require.Equal(t, errs.RuleAllowedWeekdays, rv.Rule)
	require.Contains(t, rv.Message, "Monday, Wednesday")
}

func TestValidateEventDate_SameDay(t *testing.T) {
	tpls := fakeTemplates{
		"tpl_1": {ID: "tpl_1", Name: "Concert", Rules: template.Rules{NoSameDayEvents: true}},
	}
	events := &fakeEvents{days: map[string]map[string][]string{
		"tpl_1": {"2025-03-03": {"evt_a"}},
	}}
	ev := rules.NewEvaluator(tpls, events, nil)

	err := ev.ValidateEventDate(context.Background(), date(t, "2025-03-03"), "tpl_1", "")
	var rv *errs.RuleViolation
	require.ErrorAs(t, err, &rv)
	require.Equal(t, errs.RuleNoSameDayEvents, rv.Rule)

	// the event itself does not block its own update
	require.NoError(t, ev.ValidateEventDate(context.Background(), date(t, "2025-03-03"), "tpl_1", "evt_a"))
	require.NoError(t, ev.ValidateEventDate(context.Background(), date(t, "2025-03-04"), "tpl_1", ""))
}

func TestValidateEventDate_WeekdayCheckedFirst(t *testing.T) {
	tpls := fakeTemplates{
		"tpl_1": {ID: "tpl_1", Rules: template.Rules{NoSameDayEvents: true, AllowedWeekDays: []int{1}}},
	}
	events := &fakeEvents{}
	ev := rules.NewEvaluator(tpls, events, nil)

	err := ev.ValidateEventDate(context.Background(), date(t, "2025-03-04"), "tpl_1", "")
	var rv *errs.RuleViolation
	require.ErrorAs(t, err, &rv)
	require.Equal(t, errs.RuleAllowedWeekdays, rv.Rule)
	require.Zero(t, events.calls)
}

func TestValidateEventDate_NoConstraints(t *testing.T) {
	events := &fakeEvents{err: errors.New("boom")}
	ev := rules.NewEvaluator(fakeTemplates{"tpl_1": {ID: "tpl_1"}}, events, nil)

	require.NoError(t, ev.ValidateEventDate(context.Background(), date(t, "2025-03-04"), "", ""))
	require.NoError(t, ev.ValidateEventDate(context.Background(), date(t, "2025-03-04"), "tpl_missing", ""))
	require.NoError(t, ev.ValidateEventDate(context.Background(), date(t, "2025-03-04"), "tpl_1", ""))
	require.Zero(t, events.calls)
}

func TestValidateEventDate_CounterError(t *testing.T) {
	tpls := fakeTemplates{"tpl_1": {ID: "tpl_1", Rules: template.Rules{NoSameDayEvents: true}}}
	ev := rules.NewEvaluator(tpls, &fakeEvents{err: errors.New("db down")}, nil)

	err := ev.ValidateEventDate(context.Background(), date(t, "2025-03-04"), "tpl_1", "")
	require.Error(t, err)
	require.False(t, errors.Is(err, errs.ErrRuleViolation))
}

func TestValidateEventDate_WeekdayProperty(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		allowed := rapid.SliceOfNDistinct(rapid.IntRange(0, 6), 1, 7, rapid.ID[int]).Draw(r, "allowed")
		offset := rapid.IntRange(0, 3650).Draw(r, "offset")

		tpl := template.Template{ID: "tpl_1", Name: "T", Rules: template.Rules{AllowedWeekDays: allowed}.Normalize()}
		ev := rules.NewEvaluator(fakeTemplates{"tpl_1": tpl}, &fakeEvents{}, nil)

		d := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
		err := ev.ValidateEventDate(context.Background(), d, "tpl_1", "")

		in := false
		for _, a := range allowed {
			if time.Weekday(a) == d.Weekday() {
				in = true
			}
		}

		if in && err != nil {
			r.Fatalf("%s is allowed by %v but got %v", d.Weekday(), allowed, err)
		}
		if !in {
			var rv *errs.RuleViolation
			if !errors.As(err, &rv) || rv.Rule != errs.RuleAllowedWeekdays {
				r.Fatalf("%s is not allowed by %v but got %v", d.Weekday(), allowed, err)
			}
			for _, a := range tpl.Rules.AllowedWeekDays {
				if !strings.Contains(rv.Message, time.Weekday(a).String()) {
					r.Fatalf("message %q does not name %s", rv.Message, time.Weekday(a))
				}
			}
		}
	})
}
