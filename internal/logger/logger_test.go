package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithFile(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "logs", "sheetpilot.log")

	l, err := New(Config{
		Level: "debug",
		File:  logFile,
	})
	require.NoError(t, err)
	defer l.Close()

	zl := l.GetZerolog()
	zl.Info().Str("key", "value").Msg("test message")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "test message")
	assert.Contains(t, string(data), `"key":"value"`)
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "sheetpilot.log")

	l, err := New(Config{
		Level: "bogus",
		File:  logFile,
	})
	require.NoError(t, err)
	defer l.Close()

	// Debug messages are filtered at info level
	zl := l.GetZerolog()
	zl.Debug().Msg("should not appear")
	zl.Info().Msg("should appear")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should not appear")
	assert.Contains(t, string(data), "should appear")
}

func TestNewConsoleOnly(t *testing.T) {
	l, err := New(Config{
		Level:   "info",
		Console: true,
	})
	require.NoError(t, err)
	assert.NoError(t, l.Close())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.True(t, cfg.Console)
}
