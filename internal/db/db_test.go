package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	d, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "eventdesk.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "eventdesk.db")

	d, err := Open(Config{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	defer d.Close()

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	require.True(t, info.IsDir())
	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}
	require.Equal(t, SQLite, d.Dialect)
}

func TestOpen_Pragmas(t *testing.T) {
	d := openTemp(t)

	var mode string
	require.NoError(t, d.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, d.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	require.Equal(t, 5000, timeout)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	d := openTemp(t)
	ctx := context.Background()

	require.NoError(t, EnsureSchema(ctx, d))
	require.NoError(t, EnsureSchema(ctx, d))

	for _, table := range []string{"templates", "events", "registrations", "attendees"} {
		var name string
		err := d.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	d := openTemp(t)
	ctx := context.Background()
	require.NoError(t, EnsureSchema(ctx, d))

	insert := `INSERT INTO events (id, slug, title, event_type, date, location, capacity, created_at, updated_at)
		VALUES (?, ?, 't', 'x', '2025-01-01T00:00:00', 'here', 1, 'now', 'now')`

	_, err := d.ExecContext(ctx, insert, "evt_1", "same")
	require.NoError(t, err)

	_, err = d.ExecContext(ctx, insert, "evt_2", "same")
	require.Error(t, err)
	require.True(t, d.Dialect.IsUniqueViolation(err))

	require.False(t, d.Dialect.IsUniqueViolation(errors.New("nope")))
	require.False(t, d.Dialect.IsUniqueViolation(nil))
	require.True(t, Postgres.IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.False(t, Postgres.IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM events WHERE a = ? AND b = '?' AND c = ?"

	require.Equal(t, q, SQLite.Rebind(q))
	require.Equal(t, "SELECT * FROM events WHERE a = $1 AND b = '?' AND c = $2", Postgres.Rebind(q))
}
