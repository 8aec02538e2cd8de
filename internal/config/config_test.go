package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestApplyEnvOverridesDefaults(t *testing.T) {
	cfg := defaults()

	err := cfg.applyEnv(envMap(map[string]string{
		"PORT":            "9000",
		"DATABASE_URL":    "postgres://localhost/chat",
		"JWT_SECRET":      "secret",
		"TOKEN_TTL":       "2h",
		"CHAT_BROKER":     " Redis ",
		"REDIS_URL":       "redis://localhost:6379/0",
		"ALLOWED_ORIGINS": "http://a.test, ,http://b.test",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, BrokerRedis, cfg.ChatBroker)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvRejectsBadTTL(t *testing.T) {
	cfg := defaults()
	err := cfg.applyEnv(envMap(map[string]string{"TOKEN_TTL": "forever"}))
	assert.ErrorContains(t, err, "TOKEN_TTL")
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "DATABASE_URL")
	assert.ErrorContains(t, err, "JWT_SECRET")

	cfg.DatabaseURL = "postgres://localhost/chat"
	cfg.JWTSecret = "secret"
	assert.NoError(t, cfg.Validate())

	cfg.ChatBroker = BrokerRedis
	assert.ErrorContains(t, cfg.Validate(), "REDIS_URL")

	cfg.ChatBroker = "nats"
	assert.ErrorContains(t, cfg.Validate(), "unknown CHAT_BROKER")
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
database_url: postgres://file/chat
jwt_secret: from-file
token_ttl: 1h
allowed_origins:
  - http://file.test
`), 0o600))

	cfg := defaults()
	require.NoError(t, cfg.loadFile(path))
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://file.test"}, cfg.AllowedOrigins)

	require.NoError(t, cfg.applyEnv(envMap(map[string]string{"JWT_SECRET": "from-env"})))
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, "postgres://file/chat", cfg.DatabaseURL)
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		cfg := Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel(), in)
	}
}
