// Package config reads the server settings from the environment. A .env file,
// if present, is loaded by the entry point before Load is called.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	DefaultAuthSessionURL = "https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data"
)

type Config struct {
	HTTPAddr           string
	StoreDriver        string
	PostgresDSN        string
	ElasticURL         string
	AuthSessionURL     string
	AuthTimeout        time.Duration
	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	LogLevel           string
	SyncInterval       time.Duration
	DLQRetryInterval   time.Duration
}

// SyncEnabled reports whether outbox events should be written and shipped to
// Elasticsearch.
func (c *Config) SyncEnabled() bool {
	return c.ElasticURL != "" && c.StoreDriver == DriverPostgres
}

func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.StoreDriver = DriverPostgres
	c.AuthSessionURL = DefaultAuthSessionURL
	c.AuthTimeout = 10 * time.Second
	c.CORSAllowedOrigins = []string{"*"}
	c.MaxBodyBytes = 32 << 20
	c.LogLevel = "info"
	c.SyncInterval = time.Second
	c.DLQRetryInterval = 30 * time.Second
}

// Load applies defaults and then overlays any environment variables that are set.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	str(&cfg.HTTPAddr, "HTTP_ADDR")
	str(&cfg.StoreDriver, "STORE_DRIVER")
	str(&cfg.PostgresDSN, "POSTGRES_DSN")
	str(&cfg.ElasticURL, "ELASTIC_URL")
	str(&cfg.AuthSessionURL, "AUTH_SESSION_URL")
	str(&cfg.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	var err error
	if cfg.AuthTimeout, err = duration("AUTH_TIMEOUT", cfg.AuthTimeout); err != nil {
		return nil, err
	}
	if cfg.SyncInterval, err = duration("SYNC_INTERVAL", cfg.SyncInterval); err != nil {
		return nil, err
	}
	if cfg.DLQRetryInterval, err = duration("DLQ_RETRY_INTERVAL", cfg.DLQRetryInterval); err != nil {
		return nil, err
	}
	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MAX_BODY_BYTES: invalid value %q", v)
		}
		cfg.MaxBodyBytes = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the %s store", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER: unknown driver %q", c.StoreDriver)
	}
	if c.AuthTimeout <= 0 {
		return fmt.Errorf("AUTH_TIMEOUT must be positive")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive")
	}
	if c.DLQRetryInterval <= 0 {
		return fmt.Errorf("DLQ_RETRY_INTERVAL must be positive")
	}
	return nil
}

func str(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
