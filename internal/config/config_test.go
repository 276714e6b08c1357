package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, StoreModeS3, cfg.Store.Mode)
	assert.Equal(t, "models/xgb_scaler_professional.json", cfg.Artifacts.Scaler)
	assert.Equal(t, "historicos/hist_mes_hora.csv", cfg.Artifacts.HistMonthHour)
	assert.Len(t, cfg.Artifacts.Keys(), 10)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("rejects unknown store mode", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Mode = "ftp"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "store mode")
	})

	t.Run("requires bucket in s3 mode", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Bucket = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("local mode does not need a bucket", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Mode = StoreModeLocal
		cfg.Store.Bucket = ""
		assert.NoError(t, cfg.Validate())
	})

	t.Run("requires every artifact key", func(t *testing.T) {
		cfg := Default()
		cfg.Artifacts.HistHourWeekday = ""
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "hist_hora_dia")
	})

	t.Run("rejects negative bandwidth cap", func(t *testing.T) {
		cfg := Default()
		cfg.Store.MaxBytesPerSecond = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("requires at least one fetch attempt", func(t *testing.T) {
		cfg := Default()
		cfg.Artifacts.FetchAttempts = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	t.Run("reads yaml file over defaults", func(t *testing.T) {
		// Arrange
		dir := t.TempDir()
		path := filepath.Join(dir, "parkbeat.yaml")
		content := `
store:
  mode: local
  local_path: /srv/artifacts
artifacts:
  model: models/other.json
  fetch_timeout: 5s
log:
  level: debug
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		// Act
		cfg, err := Load(path)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, StoreModeLocal, cfg.Store.Mode)
		assert.Equal(t, "/srv/artifacts", cfg.Store.LocalPath)
		assert.Equal(t, "models/other.json", cfg.Artifacts.Model)
		assert.Equal(t, "models/xgb_scaler_professional.json", cfg.Artifacts.Scaler)
		assert.Equal(t, 5*time.Second, cfg.Artifacts.FetchTimeout)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("BUCKET_NAME", "legacy-bucket")
		t.Setenv("PARKBEAT_LOG_LEVEL", "warn")
		t.Setenv("PARKBEAT_FETCH_ATTEMPTS", "5")

		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, "legacy-bucket", cfg.Store.Bucket)
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.Equal(t, 5, cfg.Artifacts.FetchAttempts)
	})

	t.Run("PARKBEAT_BUCKET wins over BUCKET_NAME", func(t *testing.T) {
		t.Setenv("BUCKET_NAME", "legacy-bucket")
		t.Setenv("PARKBEAT_BUCKET", "new-bucket")

		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, "new-bucket", cfg.Store.Bucket)
	})
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("PARKBEAT_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnvOrDefault("PARKBEAT_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnvOrDefault("PARKBEAT_TEST_UNSET", "fallback"))
}
