package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pointConfigFileAway keeps a config.yaml in the working directory from
// leaking into tests.
func pointConfigFileAway(t *testing.T) {
	t.Helper()
	t.Setenv("TSR_CONFIG_FILE", filepath.Join(t.TempDir(), "does-not-exist.yaml"))
}

func TestLoadDefaults(t *testing.T) {
	pointConfigFileAway(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "data/tesseract.db", cfg.Storage.DSN)
	assert.Equal(t, 30*24*time.Hour, cfg.RefData.MaxAge)
	assert.InDelta(t, 0.88, cfg.Entity.MatchThreshold, 1e-9)
	assert.InDelta(t, 0.72, cfg.Entity.ReviewThreshold, 1e-9)
	assert.Equal(t, 5, cfg.Metrics.IPCWindowDays)
	assert.Equal(t, 182, cfg.Predictor.MinHistoryDays)
	assert.Equal(t, 2, cfg.Signals.ConsecutiveForAlert)
	assert.Equal(t, 24*time.Hour, cfg.Signals.Cooldown)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9000
logging:
  level: debug
  format: text
metrics:
  ipc_window_days: 7
`
	require.NoError(t, os.WriteFile(file, []byte(yaml), 0o644))
	t.Setenv("TSR_CONFIG_FILE", file)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 7, cfg.Metrics.IPCWindowDays)
	// Untouched fields still default.
	assert.Equal(t, "data/tesseract.db", cfg.Storage.DSN)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  port: 9000\n"), 0o644))
	t.Setenv("TSR_CONFIG_FILE", file)
	t.Setenv("TSR_SERVER_PORT", "9100")
	t.Setenv("TSR_LOGGING_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	pointConfigFileAway(t)
	t.Setenv("TSR_LOGGING_LEVEL", "loud")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoadRejectsInvertedThresholds(t *testing.T) {
	pointConfigFileAway(t)
	// Review band must sit strictly below the automatic-merge threshold.
	t.Setenv("TSR_ENTITY_MATCH_THRESHOLD", "0.70")
	t.Setenv("TSR_ENTITY_REVIEW_THRESHOLD", "0.80")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server: [not a map"), 0o644))
	t.Setenv("TSR_CONFIG_FILE", file)

	_, err := Load()
	require.Error(t, err)
}

func TestValidateDirect(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()
	require.NoError(t, cfg.Validate())

	cfg.Server.Port = -1
	assert.Error(t, cfg.Validate())
}
