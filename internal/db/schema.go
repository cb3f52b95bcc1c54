package db

import (
	"context"
	"fmt"
)

// The schema is kept to types both engines understand. Dates are text so day,
// month and year can be cut out with substr on either engine.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS templates (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		event_type       TEXT NOT NULL,
		default_capacity INTEGER NOT NULL DEFAULT 0,
		default_price    DOUBLE PRECISION NOT NULL DEFAULT 0,
		rules            TEXT NOT NULL DEFAULT '{}',
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id          TEXT PRIMARY KEY,
		slug        TEXT NOT NULL UNIQUE,
		title       TEXT NOT NULL,
		description TEXT,
		event_type  TEXT NOT NULL,
		date        TEXT NOT NULL,
		location    TEXT NOT NULL,
		capacity    INTEGER NOT NULL,
		price       DOUBLE PRECISION,
		is_public   BOOLEAN NOT NULL DEFAULT TRUE,
		template_id TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_date ON events (date)`,
	`CREATE INDEX IF NOT EXISTS idx_events_template_date ON events (template_id, date)`,
	`CREATE TABLE IF NOT EXISTS registrations (
		id          TEXT PRIMARY KEY,
		event_id    TEXT NOT NULL,
		status      TEXT NOT NULL,
		total_price DOUBLE PRECISION NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_registrations_event ON registrations (event_id, status)`,
	`CREATE TABLE IF NOT EXISTS attendees (
		id              TEXT PRIMARY KEY,
		registration_id TEXT NOT NULL,
		name            TEXT NOT NULL,
		email           TEXT NOT NULL,
		phone           TEXT NOT NULL,
		created_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendees_registration ON attendees (registration_id)`,
}

// EnsureSchema creates the tables and indexes if missing. Safe to call on every start.
func EnsureSchema(ctx context.Context, d *DB) error {
	for _, stmt := range schema {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
