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

func TestMustLoadPath_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: memory
auth:
  jwt_secret: s
`)

	cfg := MustLoadPath(path)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, DriverMemory, cfg.Blob.Driver)
	assert.Equal(t, "chat-images", cfg.Blob.Bucket)
	assert.Equal(t, "http://localhost:8080/api/blobs", cfg.Blob.PublicBaseURL)
	assert.Equal(t, int64(10<<20), cfg.Blob.MaxUploadBytes)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Empty(t, cfg.Redis.Address)
}

func TestMustLoadPath_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
env: prod
database:
  driver: postgres
  dsn: "host=db"
auth:
  jwt_secret: from-file
`)
	t.Setenv("AUTH_JWT_SECRET", "from-env")
	t.Setenv("REDIS_ADDRESS", "redis:6379")

	cfg := MustLoadPath(path)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, "host=db", cfg.Database.DSN)
}

func TestMustLoadPath_Panics(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "postgres without dsn", body: "database:\n  driver: postgres\nauth:\n  jwt_secret: s\n"},
		{name: "unknown blob driver", body: "database:\n  driver: memory\nblob:\n  driver: s3\nauth:\n  jwt_secret: s\n"},
		{name: "missing secret", body: "database:\n  driver: memory\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			assert.Panics(t, func() { MustLoadPath(path) })
		})
	}

	assert.Panics(t, func() { MustLoadPath(filepath.Join(t.TempDir(), "missing.yaml")) })
}
