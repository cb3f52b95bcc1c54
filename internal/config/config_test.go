package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")

	cfg, err := Load(NewViper())
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, devJWTSecret, cfg.JWTSecret)
	require.Equal(t, time.Hour, cfg.AccessTTL)
	require.Equal(t, 30*time.Second, cfg.CacheTTL)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_URL", "postgres://u:p@localhost:5432/eventdesk")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_EMAIL", " Admin@Example.com ")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load(NewViper())
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "postgres", cfg.DBDriver)
	require.Equal(t, "s3cret", cfg.JWTSecret)
	require.Equal(t, "admin@example.com", cfg.AdminEmail)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load(NewViper())
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_SECRET")
	require.Contains(t, err.Error(), "DB_DRIVER")
}
