package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
	"github.com/joakimtj/eventdesk/internal/domain/event"
	"github.com/joakimtj/eventdesk/internal/domain/template"
	"github.com/joakimtj/eventdesk/internal/rules"
)

const maxDescriptionLen = 5000

type EventsRepo struct {
	base
	templates *TemplatesRepo
	rules     *rules.Evaluator
}

const eventColumnsSelect = `id, slug, title, description, event_type, date, location, capacity, price, is_public, template_id, created_at, updated_at`

// spots taken by approved registrations of the outer events row
const spotsUsedExpr = `(SELECT COUNT(*) FROM attendees a
	JOIN registrations r ON r.id = a.registration_id
	WHERE r.event_id = events.id AND r.status = 'approved')`

func scanEvent(s scanner) (event.Event, error) {
	var (
		e                       event.Event
		description, templateID sql.NullString
		price                   sql.NullFloat64
		date, created, updated  string
	)

	err := s.Scan(&e.ID, &e.Slug, &e.Title, &description, &e.EventType, &date, &e.Location,
		&e.Capacity, &price, &e.IsPublic, &templateID, &created, &updated)
	if err != nil {
		return event.Event{}, err
	}

	if description.Valid {
		e.Description = &description.String
	}
	if price.Valid {
		e.Price = &price.Float64
	}
	if templateID.Valid {
		e.TemplateID = &templateID.String
	}
	if e.Date, err = time.Parse(event.DateLayout, date); err != nil {
		return event.Event{}, fmt.Errorf("failed to parse event date %q: %w", date, err)
	}
	if e.CreatedAt, err = parseTS(created); err != nil {
		return event.Event{}, err
	}
	if e.UpdatedAt, err = parseTS(updated); err != nil {
		return event.Event{}, err
	}
	return e, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// Create resolves the template (if any), validates the date against its rules
// and inserts the event. Nothing is written when any step fails.
func (r *EventsRepo) Create(ctx context.Context, req event.CreateEventRequest) (event.Event, error) {
	if req.TemplateID != nil && strings.TrimSpace(*req.TemplateID) == "" {
		req.TemplateID = nil
	}

	var tpl *template.Template
	if req.TemplateID != nil {
		t, err := r.templates.GetByID(ctx, *req.TemplateID)
		if err != nil {
			return event.Event{}, err
		}
		tpl = &t
	}

	e, err := event.NewFromCreateRequest(req, tpl)
	if err != nil {
		return event.Event{}, err
	}

	if tpl != nil {
		if err := r.rules.ValidateEventDate(ctx, e.Date, tpl.ID, ""); err != nil {
			return event.Event{}, err
		}
	}

	taken, err := r.SlugTaken(ctx, e.Slug, "")
	if err != nil {
		return event.Event{}, err
	}
	if taken {
		return event.Event{}, slugTaken(e.Slug)
	}

	err = r.observe("events.create", func() error {
		_, e2 := r.db.ExecContext(ctx, r.rebind(`
			INSERT INTO events (id, slug, title, description, event_type, date, location, capacity, price, is_public, template_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			e.ID, e.Slug, e.Title, nullString(e.Description), e.EventType, event.FormatDate(e.Date), e.Location,
			e.Capacity, nullFloat(e.Price), e.IsPublic, nullString(e.TemplateID), formatTS(e.CreatedAt), formatTS(e.UpdatedAt))
		return e2
	})
	if err != nil {
		// lost a race with a concurrent insert of the same slug
		if r.db.Dialect.IsUniqueViolation(err) {
			return event.Event{}, slugTaken(e.Slug)
		}
		return event.Event{}, fmt.Errorf("failed to insert event: %w", err)
	}
	return e, nil
}

func slugTaken(slug string) error {
	return errs.Violation(errs.RuleSlugTaken, "slug %q is already in use", slug)
}

func (r *EventsRepo) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int
	err := r.observe("events.slug_taken", func() error {
		return r.db.QueryRowContext(ctx, r.rebind(`SELECT COUNT(*) FROM events WHERE slug = ? AND id <> ?`), slug, excludeID).Scan(&n)
	})
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return n > 0, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	return r.getOne(ctx, "events.get_by_id", `id = ?`, id)
}

func (r *EventsRepo) GetBySlug(ctx context.Context, slug string) (event.Event, error) {
	return r.getOne(ctx, "events.get_by_slug", `slug = ?`, slug)
}

func (r *EventsRepo) getOne(ctx context.Context, op, where string, arg string) (e event.Event, err error) {
	err = r.observe(op, func() error {
		row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+eventColumnsSelect+` FROM events WHERE `+where), arg)
		e, err = scanEvent(row)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, event.ErrNotFound
	}
	if err != nil {
		return event.Event{}, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

// List returns the events matching every supplied filter, ordered by date.
func (r *EventsRepo) List(ctx context.Context, f event.ListEventsFilter) (out []event.Event, err error) {
	var conds []string
	var args []any

	if f.Month != nil {
		if *f.Month < 1 || *f.Month > 12 {
			return nil, errs.Invalid("month", "must be between 1 and 12")
		}
		conds = append(conds, "substr(date, 6, 2) = ?")
		args = append(args, fmt.Sprintf("%02d", *f.Month))
	}
	if f.Year != nil {
		if *f.Year < 1 || *f.Year > 9999 {
			return nil, errs.Invalid("year", "must be between 1 and 9999")
		}
		conds = append(conds, "substr(date, 1, 4) = ?")
		args = append(args, fmt.Sprintf("%04d", *f.Year))
	}
	if f.EventType != nil {
		conds = append(conds, "event_type = ?")
		args = append(args, *f.EventType)
	}
	if f.TemplateID != nil {
		conds = append(conds, "template_id = ?")
		args = append(args, *f.TemplateID)
	}
	if f.IsPublic != nil {
		conds = append(conds, "is_public = ?")
		args = append(args, *f.IsPublic)
	}
	if f.Status != nil {
		switch *f.Status {
		case event.Available:
			conds = append(conds, spotsUsedExpr+" < capacity")
		case event.Full:
			conds = append(conds, spotsUsedExpr+" >= capacity")
		default:
			return nil, errs.Invalid("status", "must be one of available, full")
		}
	}

	query := `SELECT ` + eventColumnsSelect + ` FROM events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	// stable ordering
	query += " ORDER BY date ASC, id ASC"

	var rows *sql.Rows
	err = r.observe("events.list", func() error {
		rows, err = r.db.QueryContext(ctx, r.rebind(query), args...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = make([]event.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return out, nil
}

// CountOnDay implements rules.SameDayCounter.
func (r *EventsRepo) CountOnDay(ctx context.Context, templateID, day, excludeEventID string) (int, error) {
	var n int
	err := r.observe("events.count_on_day", func() error {
		return r.db.QueryRowContext(ctx, r.rebind(`
			SELECT COUNT(*) FROM events
			WHERE template_id = ? AND substr(date, 1, 10) = ? AND id <> ?`),
			templateID, day, excludeEventID).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count events on %s: %w", day, err)
	}
	return n, nil
}

// FilterOptions lists the distinct types, years and months of stored events.
// With publicOnly set, private events do not contribute.
func (r *EventsRepo) FilterOptions(ctx context.Context, publicOnly bool) (event.FilterOptions, error) {
	opts := event.FilterOptions{EventTypes: []string{}, Years: []int{}, Months: []int{}}

	where := ""
	var args []any
	if publicOnly {
		where = " WHERE is_public = ?"
		args = append(args, true)
	}

	err := r.observe("events.filter_options", func() error {
		types, err := r.distinctStrings(ctx, `SELECT DISTINCT event_type FROM events`+where+` ORDER BY event_type`, args...)
		if err != nil {
			return err
		}
		opts.EventTypes = types

		if opts.Years, err = r.distinctInts(ctx, `SELECT DISTINCT CAST(substr(date, 1, 4) AS INTEGER) AS v FROM events`+where+` ORDER BY v`, args...); err != nil {
			return err
		}
		opts.Months, err = r.distinctInts(ctx, `SELECT DISTINCT CAST(substr(date, 6, 2) AS INTEGER) AS v FROM events`+where+` ORDER BY v`, args...)
		return err
	})
	if err != nil {
		return event.FilterOptions{}, fmt.Errorf("failed to load filter options: %w", err)
	}
	return opts, nil
}

func (r *EventsRepo) distinctStrings(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *EventsRepo) distinctInts(ctx context.Context, q string, args ...any) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]int, 0)
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Update applies the supplied fields. When the date or the template changes,
// the resulting date is validated against the resulting template, ignoring the
// event itself for the same-day rule.
func (r *EventsRepo) Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return event.Event{}, err
	}

	u := newUpdate("events", eventColumns)

	if req.Slug != nil {
		slug := event.Slugify(*req.Slug)
		if slug == "" {
			return event.Event{}, errs.Invalid("slug", "must contain letters or digits")
		}
		if slug != current.Slug {
			taken, err := r.SlugTaken(ctx, slug, id)
			if err != nil {
				return event.Event{}, err
			}
			if taken {
				return event.Event{}, slugTaken(slug)
			}
			u.Set("slug", slug)
		}
	}
	if req.Title != nil {
		u.Set("title", strings.TrimSpace(*req.Title))
	}
	if req.Description.Set {
		if req.Description.Valid && utf8.RuneCountInString(req.Description.Value) > maxDescriptionLen {
			return event.Event{}, errs.Invalid("description", "must be at most 5000 characters")
		}
		u.Set("description", nullString(req.Description.Ptr()))
	}
	if req.EventType != nil {
		u.Set("event_type", strings.TrimSpace(*req.EventType))
	}
	if req.Location != nil {
		u.Set("location", strings.TrimSpace(*req.Location))
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			return event.Event{}, errs.Invalid("capacity", "must be greater than 0")
		}
		u.Set("capacity", *req.Capacity)
	}
	if req.Price.Set {
		if req.Price.Valid && req.Price.Value < 0 {
			return event.Event{}, errs.Invalid("price", "must be at least 0")
		}
		u.Set("price", nullFloat(req.Price.Ptr()))
	}
	if req.IsPublic != nil {
		u.Set("is_public", *req.IsPublic)
	}

	date := current.Date
	dateChanged := false
	if req.Date != nil {
		if date, err = event.ParseDate(*req.Date); err != nil {
			return event.Event{}, err
		}
		dateChanged = !date.Equal(current.Date)
		u.Set("date", event.FormatDate(date))
	}

	templateID := ""
	if current.TemplateID != nil {
		templateID = *current.TemplateID
	}
	templateChanged := false
	if req.TemplateID.Set {
		next := ""
		if req.TemplateID.Valid {
			next = strings.TrimSpace(req.TemplateID.Value)
		}
		if next != "" {
			// a dangling reference is NotFound, as on create
			if _, err := r.templates.GetByID(ctx, next); err != nil {
				return event.Event{}, err
			}
			u.Set("template_id", next)
		} else {
			u.Set("template_id", nil)
		}
		templateChanged = next != templateID
		templateID = next
	}

	if templateID != "" && (dateChanged || templateChanged) {
		if err := r.rules.ValidateEventDate(ctx, date, templateID, id); err != nil {
			return event.Event{}, err
		}
	}

	q, args, err := u.Build(id, time.Now(), true)
	if err != nil {
		return event.Event{}, err
	}

	var res sql.Result
	err = r.observe("events.update", func() error {
		res, err = r.db.ExecContext(ctx, r.rebind(q), args...)
		return err
	})
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) && req.Slug != nil {
			return event.Event{}, slugTaken(event.Slugify(*req.Slug))
		}
		return event.Event{}, fmt.Errorf("failed to update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return event.Event{}, event.ErrNotFound
	}
	return r.GetByID(ctx, id)
}
