package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "wallet-bridge", config.AppName)
	assert.Equal(t, "localhost:8501", config.ListenAddress)
	assert.Equal(t, 30*time.Second, config.ShutdownGracePeriod)
	assert.False(t, config.EnableBallast)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("APP_NAME", "bridge-test")
	t.Setenv("SHUTDOWN_GRACE_PERIOD", "5s")
	t.Setenv("ENABLE_PPROF", "true")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "bridge-test", config.AppName)
	assert.Equal(t, 5*time.Second, config.ShutdownGracePeriod)
	assert.True(t, config.EnablePprof)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [unterminated"), 0600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
