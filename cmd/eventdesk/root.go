package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joakimtj/eventdesk/internal/config"
	"github.com/joakimtj/eventdesk/internal/db"
	"github.com/joakimtj/eventdesk/internal/observability"
)

// app is what every subcommand starts from.
type app struct {
	v   *viper.Viper
	cfg config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:           "eventdesk",
		Short:         "Event registration API",
		Long:          `eventdesk serves templates, events, registrations and attendees over a JSON API backed by SQLite or Postgres.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			a.cfg = cfg
			a.log = observability.NewLogger(cfg.Env)
			slog.SetDefault(a.log)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.String("env", "", "runtime environment (dev enables debug logging)")
	flags.Int("port", 0, "HTTP listen port")
	flags.String("db-driver", "", "database driver: sqlite or postgres")
	flags.String("db-path", "", "SQLite database file")
	flags.String("db-url", "", "Postgres connection URL")

	// Bind flags to viper; a flag only wins when it is set
	_ = a.v.BindPFlag("APP_ENV", flags.Lookup("env"))
	_ = a.v.BindPFlag("PORT", flags.Lookup("port"))
	_ = a.v.BindPFlag("DB_DRIVER", flags.Lookup("db-driver"))
	_ = a.v.BindPFlag("DB_PATH", flags.Lookup("db-path"))
	_ = a.v.BindPFlag("DB_URL", flags.Lookup("db-url"))

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "schema",
			Short: "Create missing tables and indexes, then exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.schema(cmd.Context())
			},
		},
	)

	return root
}

func (a *app) openDB(ctx context.Context) (*db.DB, error) {
	d, err := db.Open(db.Config{Driver: a.cfg.DBDriver, Path: a.cfg.DBPath, URL: a.cfg.DBURL})
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx, d); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func (a *app) schema(ctx context.Context) error {
	d, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	a.log.Info("schema ready", "driver", d.Dialect.String())
	return nil
}
