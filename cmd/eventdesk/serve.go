package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/joakimtj/eventdesk/internal/auth"
	"github.com/joakimtj/eventdesk/internal/cache"
	"github.com/joakimtj/eventdesk/internal/config"
	httpx "github.com/joakimtj/eventdesk/internal/http"
	"github.com/joakimtj/eventdesk/internal/http/handlers"
	"github.com/joakimtj/eventdesk/internal/observability"
	"github.com/joakimtj/eventdesk/internal/repo/sqlstore"
	"github.com/joakimtj/eventdesk/internal/security"
)

func (a *app) serve(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.Env, cfg.OTLPEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			if err := shutdownTracer(sctx); err != nil {
				log.Error("tracer shutdown failed", "err", err)
			}
		}()
	}

	d, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	c, closeCache, err := newCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	admin, err := adminCredentials(cfg, log)
	if err != nil {
		return err
	}

	router := httpx.NewRouter(httpx.Deps{
		Cfg:      cfg,
		Log:      log,
		Store:    sqlstore.New(d, prom, log),
		Cache:    c,
		JWT:      auth.NewManager(cfg.JWTSecret, cfg.ServiceName, cfg.AccessTTL),
		Admin:    admin,
		Prom:     prom,
		Registry: reg,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "db", d.Dialect.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-stop:
	}
	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

// newCache picks Redis when REDIS_ADDR is set and falls back to the
// in-process cache otherwise.
func newCache(ctx context.Context, cfg config.Config, log *slog.Logger) (cache.Cache, func(), error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(cfg.CacheTTL), func() {}, nil
	}

	r := cache.NewRedis(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.CacheTTL,
	})

	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.Ping(pctx); err != nil {
		_ = r.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Info("using redis cache", "addr", cfg.RedisAddr)
	return r, func() { _ = r.Close() }, nil
}

func adminCredentials(cfg config.Config, log *slog.Logger) (handlers.AdminCredentials, error) {
	if cfg.AdminPassword == "" {
		log.Warn("ADMIN_PASSWORD is not set, admin login is disabled")
		return handlers.AdminCredentials{Email: cfg.AdminEmail}, nil
	}

	hash, err := security.EnsureHash(cfg.AdminPassword)
	if err != nil {
		return handlers.AdminCredentials{}, fmt.Errorf("hash admin password: %w", err)
	}
	return handlers.AdminCredentials{Email: cfg.AdminEmail, PasswordHash: hash}, nil
}
