package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Database  DatabaseConfig  `koanf:"database"`
	JWT       JWTConfig       `koanf:"jwt"`
	NATS      NATSConfig      `koanf:"nats"`
	Tracing   TracingConfig   `koanf:"tracing"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Search    SearchConfig    `koanf:"search"`
	Ratings   RatingsConfig   `koanf:"ratings"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

type AppConfig struct {
	Name     string `koanf:"name"`
	Port     string `koanf:"port"`
	LogLevel string `koanf:"log_level"`
}

type DatabaseConfig struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`
}

// URL returns the postgres connection string understood by the pgx stdlib driver.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret string        `koanf:"secret"`
	TTL    time.Duration `koanf:"ttl"`
}

type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
}

type TracingConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Endpoint string `koanf:"endpoint"`
}

type CatalogConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
	RPS     float64       `koanf:"rps"`
}

type SearchConfig struct {
	// IndexPath is the on-disk location of the bleve index. Empty keeps the index in memory.
	IndexPath string `koanf:"index_path"`
}

type RatingsConfig struct {
	RecomputeOnUnrate bool `koanf:"recompute_on_unrate"`
}

type RateLimitConfig struct {
	Max        int           `koanf:"max"`
	Expiration time.Duration `koanf:"expiration"`
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:     "shelf-service",
			Port:     "8001",
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "shelf",
			SSLMode: "disable",
		},
		JWT: JWTConfig{
			TTL: 7 * 24 * time.Hour,
		},
		NATS: NATSConfig{
			Enabled: true,
			URL:     "nats://localhost:4222",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Endpoint: "jaeger:4317",
		},
		Catalog: CatalogConfig{
			BaseURL: "https://www.googleapis.com/books/v1",
			Timeout: 10 * time.Second,
			RPS:     5,
		},
		RateLimit: RateLimitConfig{
			Max:        10,
			Expiration: time.Minute,
		},
	}
}

var envMappings = map[string]string{
	"service_name":                "app.name",
	"app_port":                    "app.port",
	"log_level":                   "app.log_level",
	"db_host":                     "database.host",
	"db_port":                     "database.port",
	"db_user":                     "database.user",
	"db_password":                 "database.password",
	"db_name":                     "database.name",
	"db_sslmode":                  "database.sslmode",
	"jwt_secret":                  "jwt.secret",
	"jwt_ttl":                     "jwt.ttl",
	"nats_enabled":                "nats.enabled",
	"nats_url":                    "nats.url",
	"tracing_enabled":             "tracing.enabled",
	"otel_exporter_otlp_endpoint": "tracing.endpoint",
	"catalog_base_url":            "catalog.base_url",
	"catalog_api_key":             "catalog.api_key",
	"catalog_timeout":             "catalog.timeout",
	"catalog_rps":                 "catalog.rps",
	"search_index_path":           "search.index_path",
	"ratings_recompute_on_unrate": "ratings.recompute_on_unrate",
	"rate_limit_max":              "rate_limit.max",
	"rate_limit_expiration":       "rate_limit.expiration",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load reads .env.dev when present, then layers environment variables over the defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(".env.dev"); err != nil {
		slog.Info("No .env.dev file found, reading from environment variables")
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.App.Port == "" {
		errs = append(errs, errors.New("APP_PORT is required"))
	}
	if c.Catalog.BaseURL == "" {
		errs = append(errs, errors.New("CATALOG_BASE_URL is required"))
	}
	if c.Catalog.RPS <= 0 {
		errs = append(errs, errors.New("CATALOG_RPS must be positive"))
	}

	return errors.Join(errs...)
}
