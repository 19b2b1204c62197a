package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/shauritanga/twa-system/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Memory(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("POSTING_LOCK_TTL", "3s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_LOCK_TIMEOUT", "750ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 3*time.Second, cfg.PostingLockTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 750*time.Millisecond, cfg.DBLockTimeout)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_PostgresRequiresURL(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("PGSQL_URL", "")

	_, err := config.LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_UnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := config.LoadConfig()
	assert.Error(t, err)
}
