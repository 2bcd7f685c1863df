package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "forge.log")

	require.NoError(t, Init(Config{Level: "info", File: logFile}))
	Info("проверка записи", "key", "value")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "проверка записи")
	assert.Contains(t, string(data), "key=value")
}

func TestInit_DebugOverridesLevel(t *testing.T) {
	require.NoError(t, Init(Config{Level: "error", Debug: true}))
	assert.Equal(t, log.DebugLevel, Logger.GetLevel())
}

func TestInit_InvalidLevel(t *testing.T) {
	assert.Error(t, Init(Config{Level: "loud"}))
}
