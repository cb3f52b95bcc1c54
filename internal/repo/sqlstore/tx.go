package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joakimtj/eventdesk/internal/domain/registration"
)

var tracer = otel.Tracer("github.com/joakimtj/eventdesk/internal/repo/sqlstore")

// DeleteReport counts the rows removed by a cascading delete.
type DeleteReport struct {
	Found         bool
	Events        int64
	Registrations int64
	Attendees     int64
}

func (r DeleteReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("found", r.Found),
		slog.Int64("events", r.Events),
		slog.Int64("registrations", r.Registrations),
		slog.Int64("attendees", r.Attendees),
	)
}

// Coordinator runs the deletes that span several tables, each in a single
// transaction. Any failure rolls the whole unit back.
type Coordinator struct {
	base
	registrations *RegistrationsRepo
	log           *slog.Logger
}

func (c *Coordinator) inTx(ctx context.Context, name string, fn func(tx *sql.Tx) error) (err error) {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attribute.String("db.system", c.db.Dialect.String())))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// DeleteEvent removes the event with all its registrations and their
// attendees. It reports false when there was no such event.
func (c *Coordinator) DeleteEvent(ctx context.Context, id string) (bool, error) {
	rep, err := c.DeleteEventReport(ctx, id)
	return rep.Found, err
}

func (c *Coordinator) DeleteEventReport(ctx context.Context, id string) (DeleteReport, error) {
	var rep DeleteReport

	err := c.inTx(ctx, "sqlstore.DeleteEvent", func(tx *sql.Tx) error {
		regs, err := c.registrations.list(ctx, tx, "events.delete.list_registrations", registration.ListRegistrationsFilter{EventID: &id})
		if err != nil {
			return err
		}

		for _, reg := range regs {
			att, n, err := c.registrations.deleteTx(ctx, tx, reg.ID)
			if err != nil {
				return err
			}
			rep.Attendees += att
			rep.Registrations += n
		}

		var res sql.Result
		err = c.observe("events.delete", func() error {
			res, err = tx.ExecContext(ctx, c.rebind(`DELETE FROM events WHERE id = ?`), id)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		rep.Events, _ = res.RowsAffected()
		rep.Found = rep.Events > 0
		return nil
	})
	if err != nil {
		return DeleteReport{}, err
	}

	c.record("events.delete", rep)
	c.log.DebugContext(ctx, "event deleted", "event_id", id, "removed", rep)
	return rep, nil
}

// DeleteRegistration removes the registration and its attendees. It reports
// false when there was no such registration.
func (c *Coordinator) DeleteRegistration(ctx context.Context, id string) (bool, error) {
	rep, err := c.DeleteRegistrationReport(ctx, id)
	return rep.Found, err
}

func (c *Coordinator) DeleteRegistrationReport(ctx context.Context, id string) (DeleteReport, error) {
	var rep DeleteReport

	err := c.inTx(ctx, "sqlstore.DeleteRegistration", func(tx *sql.Tx) error {
		att, n, err := c.registrations.deleteTx(ctx, tx, id)
		if err != nil {
			return err
		}
		rep.Attendees = att
		rep.Registrations = n
		rep.Found = n > 0
		return nil
	})
	if err != nil {
		return DeleteReport{}, err
	}

	c.record("registrations.delete", rep)
	c.log.DebugContext(ctx, "registration deleted", "registration_id", id, "removed", rep)
	return rep, nil
}

func (c *Coordinator) record(op string, rep DeleteReport) {
	if c.prom == nil {
		return
	}
	c.prom.ObserveCascade(op, map[string]int64{
		"events":        rep.Events,
		"registrations": rep.Registrations,
		"attendees":     rep.Attendees,
	})
}
