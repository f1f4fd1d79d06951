package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "territory.db", cfg.Store.DatabaseURL)
	assert.InDelta(t, 45.0, cfg.Engine.BookingThresholdMiles, 0.001)
	assert.InDelta(t, 60.0, cfg.Engine.AuditThresholdMiles, 0.001)
	assert.InDelta(t, 75.0, cfg.Engine.InRangeMiles, 0.001)
	assert.Equal(t, 5, cfg.Engine.HorizonDays)
	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.InDelta(t, 10.0, cfg.Geocode.RateLimitRPS, 0.001)
	assert.Equal(t, "https://login.salesforce.com", cfg.Salesforce.LoginURL)
	assert.Equal(t, "Field Sales Rep", cfg.Salesforce.RepProfile)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/territory
engine:
  booking_threshold_miles: 30
  workers: 8
log:
  level: debug
  format: console
server:
  port: 9090
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.InDelta(t, 30.0, cfg.Engine.BookingThresholdMiles, 0.001)
	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.InDelta(t, 60.0, cfg.Engine.AuditThresholdMiles, 0.001)
	assert.Equal(t, 5, cfg.Engine.HorizonDays)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chTempDir(t)

	dir, _ := os.Getwd()
	yaml := "server:\n  port: 9090\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("TERRITORY_SERVER_PORT", "7070")
	t.Setenv("TERRITORY_ENGINE_AUDIT_THRESHOLD_MILES", "90")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.InDelta(t, 90.0, cfg.Engine.AuditThresholdMiles, 0.001)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	require.Error(t, err)
}
