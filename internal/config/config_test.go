package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CONFIG_PATH", "DATABASE_URL", "JWT_SECRET", "SERVER_PORT", "REDIS_ADDR", "RABBITMQ_URL", "TELEGRAM_TOKEN"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: 8081
  shutdown_timeout: 5s
database:
  url: "postgres://localhost/db"
jwt:
  secret: "s3cret"
  access_ttl: 1h
query:
  max_limit: 50
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "postgres://localhost/db", cfg.Database.DSN)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 10, cfg.Query.DefaultLimit)
	assert.Equal(t, 50, cfg.Query.MaxLimit)
	assert.Equal(t, "task_audit_logs", cfg.RabbitMQ.Queue)
	assert.False(t, cfg.Email.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
jwt:
  secret: "from-file"
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "postgres://env/db", cfg.Database.DSN)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.RateLimit.RedisAddr)
}

func TestLoadConfig_BadPort(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 1\n")
	t.Setenv("SERVER_PORT", "abc")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("DATABASE_URL", "postgres://env/db")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	assert.Error(t, cfg.Validate())

	cfg.JWT.Secret = "x"
	assert.Error(t, cfg.Validate())

	cfg.Database.DSN = "postgres://localhost/db"
	assert.NoError(t, cfg.Validate())

	cfg.Query.DefaultLimit = 500
	assert.Error(t, cfg.Validate())
}

func TestLocation(t *testing.T) {
	cfg := &Config{}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Server.Timezone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	cfg.Server.Timezone = "Not/AZone"
	_, err = cfg.Location()
	assert.Error(t, err)
}
