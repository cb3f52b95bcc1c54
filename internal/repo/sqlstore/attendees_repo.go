package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joakimtj/eventdesk/internal/domain/attendee"
	"github.com/joakimtj/eventdesk/internal/domain/registration"
)

type AttendeesRepo struct {
	base
}

const attendeeColumnsSelect = `id, registration_id, name, email, phone, created_at`

func scanAttendee(s scanner) (attendee.Attendee, error) {
	var a attendee.Attendee
	var created string

	if err := s.Scan(&a.ID, &a.RegistrationID, &a.Name, &a.Email, &a.Phone, &created); err != nil {
		return attendee.Attendee{}, err
	}
	t, err := parseTS(created)
	if err != nil {
		return attendee.Attendee{}, err
	}
	a.CreatedAt = t
	return a, nil
}

func (r *AttendeesRepo) Create(ctx context.Context, req attendee.CreateAttendeeRequest) (attendee.Attendee, error) {
	a, err := attendee.NewFromCreateRequest(req)
	if err != nil {
		return attendee.Attendee{}, err
	}

	var exists int
	err = r.observe("attendees.create.registration_exists", func() error {
		return r.db.QueryRowContext(ctx, r.rebind(`SELECT COUNT(*) FROM registrations WHERE id = ?`), a.RegistrationID).Scan(&exists)
	})
	if err != nil {
		return attendee.Attendee{}, fmt.Errorf("failed to check registration: %w", err)
	}
	if exists == 0 {
		return attendee.Attendee{}, registration.ErrNotFound
	}

	err = r.observe("attendees.create", func() error {
		_, e := r.db.ExecContext(ctx, r.rebind(`
			INSERT INTO attendees (id, registration_id, name, email, phone, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`),
			a.ID, a.RegistrationID, a.Name, a.Email, a.Phone, formatTS(a.CreatedAt))
		return e
	})
	if err != nil {
		return attendee.Attendee{}, fmt.Errorf("failed to insert attendee: %w", err)
	}
	return a, nil
}

func (r *AttendeesRepo) GetByID(ctx context.Context, id string) (a attendee.Attendee, err error) {
	err = r.observe("attendees.get_by_id", func() error {
		row := r.db.QueryRowContext(ctx, r.rebind(`SELECT `+attendeeColumnsSelect+` FROM attendees WHERE id = ?`), id)
		a, err = scanAttendee(row)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return attendee.Attendee{}, attendee.ErrNotFound
	}
	if err != nil {
		return attendee.Attendee{}, fmt.Errorf("failed to get attendee: %w", err)
	}
	return a, nil
}

func (r *AttendeesRepo) List(ctx context.Context) ([]attendee.Attendee, error) {
	return r.list(ctx, "attendees.list", "")
}

func (r *AttendeesRepo) ListByRegistration(ctx context.Context, registrationID string) ([]attendee.Attendee, error) {
	return r.list(ctx, "attendees.list_by_registration", registrationID)
}

func (r *AttendeesRepo) list(ctx context.Context, op, registrationID string) (out []attendee.Attendee, err error) {
	query := `SELECT ` + attendeeColumnsSelect + ` FROM attendees`
	var args []any
	if registrationID != "" {
		query += ` WHERE registration_id = ?`
		args = append(args, registrationID)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	var rows *sql.Rows
	err = r.observe(op, func() error {
		rows, err = r.db.QueryContext(ctx, r.rebind(query), args...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list attendees: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out = make([]attendee.Attendee, 0)
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendee: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendees: %w", err)
	}
	return out, nil
}

func (r *AttendeesRepo) CountByRegistration(ctx context.Context, registrationID string) (int, error) {
	var n int
	err := r.observe("attendees.count_by_registration", func() error {
		return r.db.QueryRowContext(ctx, r.rebind(`SELECT COUNT(*) FROM attendees WHERE registration_id = ?`), registrationID).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count attendees: %w", err)
	}
	return n, nil
}

func (r *AttendeesRepo) Update(ctx context.Context, id string, req attendee.UpdateAttendeeRequest) (attendee.Attendee, error) {
	u := newUpdate("attendees", attendeeColumns)

	set := func(col string, v *string) {
		if v != nil {
			u.Set(col, strings.TrimSpace(*v))
		}
	}
	set("name", req.Name)
	set("email", req.Email)
	set("phone", req.Phone)

	// attendees carry no updated_at
	q, args, err := u.Build(id, time.Now(), false)
	if err != nil {
		return attendee.Attendee{}, err
	}
	if q == "" {
		return r.GetByID(ctx, id)
	}

	var res sql.Result
	err = r.observe("attendees.update", func() error {
		res, err = r.db.ExecContext(ctx, r.rebind(q), args...)
		return err
	})
	if err != nil {
		return attendee.Attendee{}, fmt.Errorf("failed to update attendee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendee.Attendee{}, attendee.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *AttendeesRepo) Delete(ctx context.Context, id string) error {
	var res sql.Result
	err := r.observe("attendees.delete", func() error {
		var err error
		res, err = r.db.ExecContext(ctx, r.rebind(`DELETE FROM attendees WHERE id = ?`), id)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete attendee: %w", err)
	}

	// if no rows were deleted as a result return a not found error
	if n, _ := res.RowsAffected(); n == 0 {
		return attendee.ErrNotFound
	}
	return nil
}
