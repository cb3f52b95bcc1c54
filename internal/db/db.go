package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

type Config struct {
	Driver string // "sqlite" or "postgres"
	Path   string // sqlite file
	URL    string // postgres url
}

// DB is a *sql.DB plus the dialect the queries have to be rebound for.
type DB struct {
	*sql.DB
	Dialect Dialect
}

func Open(cfg Config) (*DB, error) {
	switch cfg.Driver {
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg.Path)
	case "postgres", "pgx":
		return openPostgres(cfg.URL)
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}

func openSQLite(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(wal)")
	q.Set("_txlock", "immediate")

	conn, err := sql.Open("sqlite3", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := ping(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &DB{DB: conn, Dialect: SQLite}, nil
}

func openPostgres(dbURL string) (*DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("postgres url is empty")
	}

	conn, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	conn.SetMaxOpenConns(5)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	if err := ping(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &DB{DB: conn, Dialect: Postgres}, nil
}

func ping(conn *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping db: %w", err)
	}
	return nil
}
