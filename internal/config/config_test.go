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
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
bot:
  token: "123:abc"
store:
  url: "http://localhost:8080"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/", cfg.Bot.CommandPrefix)
	assert.Equal(t, "8443", cfg.Bot.Webhook.ListenPort)
	assert.Equal(t, 10*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 8, cfg.Sync.Workers)
	assert.Equal(t, 6*time.Hour, cfg.Sync.Interval)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/unibans.db", cfg.Database.Path)
	assert.Empty(t, cfg.Metrics.Listen)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
bot:
  token: "123:abc"
  command_prefix: "./"
  review_chat_id: -100200
store:
  url: "http://store"
  timeout: 3s
sync:
  workers: 2
  interval: 0s
database:
  driver: mysql
  host: db
  port: 3306
metrics:
  listen: ":9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./", cfg.Bot.CommandPrefix)
	assert.Equal(t, int64(-100200), cfg.Bot.ReviewChatID)
	assert.Equal(t, 3*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 2, cfg.Sync.Workers)
	assert.Equal(t, time.Duration(0), cfg.Sync.Interval)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("UB_STORE_URL", "http://from-env")
	path := writeConfig(t, `
store:
  url: "http://from-file"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.Store.URL)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "error reading config file")

	path := writeConfig(t, `
bot:
  token: "x"
`)
	_, err = Load(path)
	assert.ErrorContains(t, err, "store.url is required")

	path = writeConfig(t, `
store:
  url: "http://x"
sync:
  workers: 0
`)
	_, err = Load(path)
	assert.ErrorContains(t, err, "sync.workers")
}
