package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "nope.json"))

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "stub", cfg.AI.Provider)
	// Path defaults are filled in even without a config file
	assert.NotEmpty(t, cfg.DataDir)
	assert.NotEmpty(t, cfg.Sessions.Dir)
	assert.NotEmpty(t, cfg.Logging.File)
}

func TestLoadOverridesDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "sheetpilot.json")

	content := `{
  "server": {"port": 9090},
  "sessions": {"driver": "redis", "redis": {"addr": "redis:6379"}},
  "models": {"default": "qwen2.5-coder-7b"},
  "data_dir": "` + tempDir + `"
}`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	// Unspecified fields keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "redis", cfg.Sessions.Driver)
	assert.Equal(t, "redis:6379", cfg.Sessions.Redis.Addr)
	assert.Equal(t, "qwen2.5-coder-7b", cfg.Models.Default)
	assert.Equal(t, filepath.Join(tempDir, "sessions"), cfg.Sessions.Dir)
	assert.Equal(t, filepath.Join(tempDir, "sheetpilot.log"), cfg.Logging.File)
}

func TestLoadInvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sheetpilot.json")
	require.NoError(t, os.WriteFile(configPath, []byte("{not json"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nested", "sheetpilot.json")
	loader := NewLoader(configPath)

	cfg := DefaultConfig()
	cfg.Server.Port = 4000
	cfg.DataDir = tempDir
	require.NoError(t, loader.Save(cfg))

	reloaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 4000, reloaded.Server.Port)
	assert.Equal(t, tempDir, reloaded.DataDir)
}

func TestGetConfigPath(t *testing.T) {
	loader := NewLoader("/tmp/custom.json")
	assert.Equal(t, "/tmp/custom.json", loader.GetConfigPath())

	loader = NewLoader("")
	assert.Contains(t, loader.GetConfigPath(), ".sheetpilot")
}
