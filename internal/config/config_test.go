package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  path: "+filepath.Join(dir, "db.sqlite")+"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []int{60, 10}, cfg.Notifications.LeadMinutes)
	assert.Equal(t, 5*time.Second, cfg.PollInterval())
	assert.Equal(t, "0 3 * * *", cfg.Backup.Schedule)
	assert.Equal(t, 20, cfg.Notifications.PushRatePerSecond)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_REDIS_PASSWORD", "sekret")

	dir := t.TempDir()
	path := writeConfig(t, `
database:
  path: `+filepath.Join(dir, "db.sqlite")+`
redis:
  address: localhost:6379
  password: ${TEST_REDIS_PASSWORD}
notifications:
  lead_minutes: [120, 30, 5]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sekret", cfg.Redis.Password)
	assert.Equal(t, []int{120, 30, 5}, cfg.Notifications.LeadMinutes)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
