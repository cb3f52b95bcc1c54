// Package sqlstore implements the repositories on top of database/sql. The same
// queries run on SQLite and Postgres; placeholders are rebound per dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/joakimtj/eventdesk/internal/db"
	"github.com/joakimtj/eventdesk/internal/observability"
	"github.com/joakimtj/eventdesk/internal/rules"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so a step can run
// standalone or inside a caller's transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// base is embedded by every repo.
type base struct {
	db   *db.DB
	prom *observability.Prom
}

func (b *base) observe(op string, fn func() error) error {
	if b.prom != nil {
		return b.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (b *base) rebind(q string) string {
	return b.db.Dialect.Rebind(q)
}

type Store struct {
	db  *db.DB
	log *slog.Logger

	Templates     *TemplatesRepo
	Events        *EventsRepo
	Registrations *RegistrationsRepo
	Attendees     *AttendeesRepo
	Capacity      *CapacityAggregator
	Coordinator   *Coordinator
}

func New(d *db.DB, prom *observability.Prom, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	b := base{db: d, prom: prom}

	s := &Store{db: d, log: log}
	s.Templates = &TemplatesRepo{base: b}
	s.Registrations = &RegistrationsRepo{base: b}
	s.Attendees = &AttendeesRepo{base: b}
	s.Events = &EventsRepo{base: b, templates: s.Templates}
	s.Events.rules = rules.NewEvaluator(s.Templates, s.Events, log)
	s.Capacity = &CapacityAggregator{registrations: s.Registrations, attendees: s.Attendees}
	s.Coordinator = &Coordinator{base: b, registrations: s.Registrations, log: log}
	return s
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// timestamps are stored as RFC 3339 text in UTC
func formatTS(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
