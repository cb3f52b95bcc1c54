package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env  string
	Port int

	DBDriver string
	DBPath   string
	DBURL    string

	JWTSecret     string
	AccessTTL     time.Duration
	AdminEmail    string
	AdminPassword string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64

	OTLPEndpoint string
	ServiceName  string
}

const devJWTSecret = "dev-secret-change-me"

// NewViper returns a viper instance reading the process environment with
// every known key defaulted. A .env file in the working directory is loaded
// first when present; real environment variables win over it.
func NewViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_PATH", "data/eventdesk.db")
	v.SetDefault("DB_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_TTL_MINUTES", 60)
	v.SetDefault("ADMIN_EMAIL", "admin@eventdesk.local")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_SECONDS", 30)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_SERVICE_NAME", "eventdesk")

	return v
}

func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Env:  v.GetString("APP_ENV"),
		Port: v.GetInt("PORT"),

		DBDriver: strings.ToLower(v.GetString("DB_DRIVER")),
		DBPath:   v.GetString("DB_PATH"),
		DBURL:    v.GetString("DB_URL"),

		JWTSecret:     v.GetString("JWT_SECRET"),
		AccessTTL:     time.Duration(v.GetInt("JWT_ACCESS_TTL_MINUTES")) * time.Minute,
		AdminEmail:    strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		CacheTTL:      time.Duration(v.GetInt("CACHE_TTL_SECONDS")) * time.Second,

		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
		MaxBodyBytes:   v.GetInt64("MAX_BODY_BYTES"),

		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
	}

	if cfg.JWTSecret == "" && cfg.IsDev() {
		cfg.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

func (c Config) Validate() error {
	var problems []error

	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			problems = append(problems, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case "postgres":
		if c.DBURL == "" {
			problems = append(problems, errors.New("DB_URL is required for the postgres driver"))
		}
	default:
		problems = append(problems, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver))
	}

	if c.JWTSecret == "" {
		problems = append(problems, errors.New("JWT_SECRET is required outside dev"))
	}
	if c.AccessTTL <= 0 {
		problems = append(problems, errors.New("JWT_ACCESS_TTL_MINUTES must be positive"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		problems = append(problems, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		problems = append(problems, errors.New("MAX_BODY_BYTES must be positive"))
	}

	return errors.Join(problems...)
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
