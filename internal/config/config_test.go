package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"CONFIG_FILE", "HTTP_ADDR", "HTTP_WRITE_TIMEOUT", "MONGO_CONNECTION_URL", "DATABASE_URL", "TOKEN_TTL",
	"PASSWORD_HASH", "LOG_LEVEL", "LATENCY_HOST", "LATENCY_PORT", "LATENCY_ATTEMPTS",
	"LATENCY_TIMEOUT", "LATENCY_BUDGET", "KAFKA_BROKERS", "KAFKA_TOPIC",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.HTTPAddr)
	assert.Equal(t, "mongodb://localhost/app", cfg.StoreURL)
	assert.Equal(t, 10*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "sha256", cfg.PasswordHash)
	assert.Equal(t, "google.com", cfg.Latency.Host)
	assert.Equal(t, 443, cfg.Latency.Port)
	assert.Equal(t, 10, cfg.Latency.Attempts)
	assert.Equal(t, 5*time.Second, cfg.Latency.Timeout)
	assert.Equal(t, 20*time.Second, cfg.Latency.Budget)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
	assert.Less(t, cfg.Latency.Budget, cfg.WriteTimeout)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "user_events", cfg.Kafka.Topic)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/auth")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("PASSWORD_HASH", "bcrypt")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/auth", cfg.StoreURL)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "bcrypt", cfg.PasswordHash)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_MongoURLWinsOverDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGO_CONNECTION_URL", "mongodb://mongo:27017/auth")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/auth")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mongodb://mongo:27017/auth", cfg.StoreURL)
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
http_addr: ":9000"
store_url: "sqlite://auth.db"
token_ttl: 15m
latency:
  host: example.org
  port: 80
  attempts: 3
  timeout: 2s
kafka:
  brokers: ["k:9092"]
  topic: auth
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LATENCY_PORT", "8080")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "sqlite://auth.db", cfg.StoreURL)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "example.org", cfg.Latency.Host)
	assert.Equal(t, 8080, cfg.Latency.Port)
	assert.Equal(t, 3, cfg.Latency.Attempts)
	assert.Equal(t, 2*time.Second, cfg.Latency.Timeout)
	assert.Equal(t, []string{"k:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "auth", cfg.Kafka.Topic)
}

func TestLoad_BudgetMustFitWriteTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_WRITE_TIMEOUT", "15s")
	t.Setenv("LATENCY_BUDGET", "50s")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("LATENCY_BUDGET", "10s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 10*time.Second, cfg.Latency.Budget)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "zero ttl", mutate: func(c *Config) { c.TokenTTL = 0 }},
		{name: "unknown hash", mutate: func(c *Config) { c.PasswordHash = "md5" }},
		{name: "bad port", mutate: func(c *Config) { c.Latency.Port = 70000 }},
		{name: "no attempts", mutate: func(c *Config) { c.Latency.Attempts = 0 }},
		{name: "empty store", mutate: func(c *Config) { c.StoreURL = " " }},
		{name: "budget reaches write timeout", mutate: func(c *Config) { c.Latency.Budget = c.WriteTimeout }},
		{name: "budget above write timeout", mutate: func(c *Config) {
			c.WriteTimeout = 10 * time.Second
			c.Latency.Budget = 50 * time.Second
		}},
		{name: "zero budget", mutate: func(c *Config) { c.Latency.Budget = 0 }},
		{name: "zero write timeout", mutate: func(c *Config) { c.WriteTimeout = 0 }},
		{name: "brokers without topic", mutate: func(c *Config) {
			c.Kafka.Brokers = []string{"k:9092"}
			c.Kafka.Topic = ""
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Defaults()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	cfg := Defaults()
	require.NoError(t, cfg.Validate())
}
