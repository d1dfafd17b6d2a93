package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, config.StoreMemory, cfg.StoreBackend)
	assert.Equal(t, 60*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWTRefreshTTL)
	assert.Equal(t, int64(1<<20), cfg.MaxUploadBytes)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "mysql")
	t.Setenv("DATABASE_DSN", "u:p@tcp(localhost:3306)/fin?parseTime=true")
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOCK_TTL", "3s")

	cfg := config.Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.False(t, cfg.RunMigrations)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.LockTTL)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Rejects(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mysql")
	assert.Error(t, config.Load().Validate(), "mysql without DSN")

	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("BLOB_BACKEND", "gcs")
	assert.Error(t, config.Load().Validate(), "gcs without bucket")
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FIN_TEST_A=from-file\nFIN_TEST_B=from-file\n"), 0o600))

	t.Setenv("FIN_TEST_A", "from-env")
	require.NoError(t, config.LoadDotEnv(path))
	t.Cleanup(func() { os.Unsetenv("FIN_TEST_B") })

	assert.Equal(t, "from-env", os.Getenv("FIN_TEST_A"))
	assert.Equal(t, "from-file", os.Getenv("FIN_TEST_B"))
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	assert.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
