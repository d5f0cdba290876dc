package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsFromEnv(t *testing.T) {
	t.Setenv("DASH_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("DASH_API_BASE_URL", "http://api.internal:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://api.internal:9000", cfg.API.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.API.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10, cfg.UI.NoticePageSize)
	assert.Equal(t, "dash.db", filepath.Base(cfg.Storage.Path))
	assert.Equal(t, filepath.Join(filepath.Dir(cfg.Storage.Path), "dash.log"), cfg.Log.File)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
api:
  base_url: https://admin.example.com
  timeout: 5s
storage:
  path: ` + filepath.Join(dir, "store.db") + `
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("DASH_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://admin.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, filepath.Join(dir, "store.db"), cfg.Storage.Path)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Setenv("DASH_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		API: APIConfig{BaseURL: "not a url", Timeout: -time.Second},
		Log: LogConfig{Format: "xml"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url")
	assert.Contains(t, err.Error(), "api.timeout")
	assert.Contains(t, err.Error(), "log.format")
	assert.Contains(t, err.Error(), "ui.notice_page_size")
}
