package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"HTTP_ADDR", "STORE_DRIVER", "POSTGRES_DSN", "ELASTIC_URL", "AUTH_SESSION_URL",
	"AUTH_TIMEOUT", "CORS_ALLOWED_ORIGINS", "MAX_BODY_BYTES", "LOG_LEVEL",
	"SYNC_INTERVAL", "DLQ_RETRY_INTERVAL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, DriverPostgres, c.StoreDriver)
	assert.Equal(t, DefaultAuthSessionURL, c.AuthSessionURL)
	assert.Equal(t, 10*time.Second, c.AuthTimeout)
	assert.Equal(t, []string{"*"}, c.CORSAllowedOrigins)
	assert.Equal(t, int64(32<<20), c.MaxBodyBytes)
	assert.Equal(t, time.Second, c.SyncInterval)
	assert.Equal(t, 30*time.Second, c.DLQRetryInterval)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("POSTGRES_DSN", "postgres://lakes")
	t.Setenv("ELASTIC_URL", "http://es:9200")
	t.Setenv("AUTH_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("MAX_BODY_BYTES", "1024")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "postgres://lakes", cfg.PostgresDSN)
	assert.Equal(t, 3*time.Second, cfg.AuthTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int64(1024), cfg.MaxBodyBytes)
	assert.True(t, cfg.SyncEnabled())
}

func TestLoad_MemoryDriverNeedsNoDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ELASTIC_URL", "http://es:9200")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.False(t, cfg.SyncEnabled(), "sync needs the postgres outbox")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without dsn", map[string]string{}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "mongo"}},
		{"bad duration", map[string]string{"STORE_DRIVER": "memory", "AUTH_TIMEOUT": "soon"}},
		{"zero timeout", map[string]string{"STORE_DRIVER": "memory", "AUTH_TIMEOUT": "0s"}},
		{"zero sync interval", map[string]string{"STORE_DRIVER": "memory", "SYNC_INTERVAL": "0s"}},
		{"negative retry interval", map[string]string{"STORE_DRIVER": "memory", "DLQ_RETRY_INTERVAL": "-5s"}},
		{"bad body size", map[string]string{"STORE_DRIVER": "memory", "MAX_BODY_BYTES": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
