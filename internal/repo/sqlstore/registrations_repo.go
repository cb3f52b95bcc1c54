package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
	"github.com/joakimtj/eventdesk/internal/domain/event"
	"github.com/joakimtj/eventdesk/internal/domain/registration"
)

type RegistrationsRepo struct {
	base
}

const registrationColumnsSelect = `id, event_id, status, total_price, created_at, updated_at`

func scanRegistration(s scanner) (registration.Registration, error) {
	var reg registration.Registration
	var status, created, updated string

	if err := s.Scan(&reg.ID, &reg.EventID, &status, &reg.TotalPrice, &created, &updated); err != nil {
		return registration.Registration{}, err
	}

	// rows written before the vocabulary was fixed may still hold aliases
	st, err := registration.ParseStatus(status)
	if err != nil {
		st = registration.Status(status)
	}
	reg.Status = st

	if reg.CreatedAt, err = parseTS(created); err != nil {
		return registration.Registration{}, err
	}
	if reg.UpdatedAt, err = parseTS(updated); err != nil {
		return registration.Registration{}, err
	}
	return reg, nil
}

func (repo *RegistrationsRepo) Create(ctx context.Context, req registration.CreateRegistrationRequest) (registration.Registration, error) {
	reg, err := registration.NewFromCreateRequest(req)
	if err != nil {
		return registration.Registration{}, err
	}

	var exists int
	err = repo.observe("registrations.create.event_exists", func() error {
		return repo.db.QueryRowContext(ctx, repo.rebind(`SELECT COUNT(*) FROM events WHERE id = ?`), reg.EventID).Scan(&exists)
	})
	if err != nil {
		return registration.Registration{}, fmt.Errorf("failed to check event: %w", err)
	}
	if exists == 0 {
		return registration.Registration{}, event.ErrNotFound
	}

	err = repo.observe("registrations.create", func() error {
		_, e := repo.db.ExecContext(ctx, repo.rebind(`
			INSERT INTO registrations (id, event_id, status, total_price, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`),
			reg.ID, reg.EventID, string(reg.Status), reg.TotalPrice, formatTS(reg.CreatedAt), formatTS(reg.UpdatedAt))
		return e
	})
	if err != nil {
		return registration.Registration{}, fmt.Errorf("failed to insert registration: %w", err)
	}
	return reg, nil
}

func (repo *RegistrationsRepo) GetByID(ctx context.Context, id string) (reg registration.Registration, err error) {
	err = repo.observe("registrations.get_by_id", func() error {
		row := repo.db.QueryRowContext(ctx, repo.rebind(`SELECT `+registrationColumnsSelect+` FROM registrations WHERE id = ?`), id)
		reg, err = scanRegistration(row)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return registration.Registration{}, registration.ErrNotFound
	}
	if err != nil {
		return registration.Registration{}, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

func (repo *RegistrationsRepo) List(ctx context.Context, f registration.ListRegistrationsFilter) ([]registration.Registration, error) {
	return repo.list(ctx, repo.db, "registrations.list", f)
}

func (repo *RegistrationsRepo) ListByEvent(ctx context.Context, eventID string) ([]registration.Registration, error) {
	return repo.list(ctx, repo.db, "registrations.list_by_event", registration.ListRegistrationsFilter{EventID: &eventID})
}

func (repo *RegistrationsRepo) list(ctx context.Context, q querier, op string, f registration.ListRegistrationsFilter) (regs []registration.Registration, err error) {
	var conds []string
	var args []any

	if f.EventID != nil {
		conds = append(conds, "event_id = ?")
		args = append(args, *f.EventID)
	}
	if f.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*f.Status))
	}

	query := `SELECT ` + registrationColumnsSelect + ` FROM registrations`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	var rows *sql.Rows
	err = repo.observe(op, func() error {
		rows, err = q.QueryContext(ctx, repo.rebind(query), args...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	regs = make([]registration.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate registrations: %w", err)
	}
	return regs, nil
}

func (repo *RegistrationsRepo) Update(ctx context.Context, id string, req registration.UpdateRegistrationRequest) (registration.Registration, error) {
	u := newUpdate("registrations", registrationColumns)

	if req.Status != nil {
		st, err := registration.ParseStatus(*req.Status)
		if err != nil {
			return registration.Registration{}, err
		}
		u.Set("status", string(st))
	}
	if req.TotalPrice != nil {
		if *req.TotalPrice < 0 {
			return registration.Registration{}, errs.Invalid("total_price", "must be at least 0")
		}
		u.Set("total_price", *req.TotalPrice)
	}

	q, args, err := u.Build(id, time.Now(), true)
	if err != nil {
		return registration.Registration{}, err
	}

	var res sql.Result
	err = repo.observe("registrations.update", func() error {
		res, err = repo.db.ExecContext(ctx, repo.rebind(q), args...)
		return err
	})
	if err != nil {
		return registration.Registration{}, fmt.Errorf("failed to update registration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return registration.Registration{}, registration.ErrNotFound
	}
	return repo.GetByID(ctx, id)
}

// deleteTx removes the registration's attendees, then the registration. It
// runs on whatever querier it is given and never opens a transaction itself.
func (repo *RegistrationsRepo) deleteTx(ctx context.Context, q querier, id string) (attendees, registrations int64, err error) {
	var res sql.Result

	err = repo.observe("registrations.delete.attendees", func() error {
		res, err = q.ExecContext(ctx, repo.rebind(`DELETE FROM attendees WHERE registration_id = ?`), id)
		return err
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete attendees of %s: %w", id, err)
	}
	attendees, _ = res.RowsAffected()

	err = repo.observe("registrations.delete", func() error {
		res, err = q.ExecContext(ctx, repo.rebind(`DELETE FROM registrations WHERE id = ?`), id)
		return err
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete registration %s: %w", id, err)
	}
	registrations, _ = res.RowsAffected()

	return attendees, registrations, nil
}
