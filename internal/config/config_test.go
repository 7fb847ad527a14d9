package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "9090"
database:
  driver: sqlite
  path: test.db
storage:
  type: minio
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.InDelta(t, 1.1, cfg.Progress.DurationTolerance, 1e-9)
	assert.InDelta(t, 5.0, cfg.Progress.ResumeRestartWindowSeconds, 1e-9)
	assert.True(t, cfg.Progress.QuizCompletesLesson)
	assert.Equal(t, "0 3 * * *", cfg.Scheduler.ReconcileCron)
	assert.Equal(t, "learning.events", cfg.Messaging.Exchange)
	assert.Equal(t, "token", cfg.JWT.CookieName)
}

func TestLoadConfigRejectsShortSecretInRelease(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
database:
  driver: sqlite
storage:
  type: minio
jwt:
  secret: short
`)

	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret is too short")
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "oracle"},
		Progress: ProgressConfig{DurationTolerance: 1.1},
	}
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsToleranceBelowOne(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "mysql"},
		Progress: ProgressConfig{DurationTolerance: 0.9},
	}
	require.Error(t, cfg.Validate())
}
