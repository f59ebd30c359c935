package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 100, cfg.Scanner.BatchSize)
	assert.Equal(t, int64(512*1024*1024), cfg.Scanner.FastHashThreshold)
	assert.Equal(t, 100, cfg.Scanner.VideoThumbnailLimit)
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vaultkeeper.yaml")
	yaml := `
server:
  port: 9090
scanner:
  batch_size: 50
  video_thumbnail_limit: 25
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(path))

	cfg := cm.GetConfig()
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Scanner.BatchSize)
	assert.Equal(t, 25, cfg.Scanner.VideoThumbnailLimit)
	// Untouched fields keep defaults
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vaultkeeper.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0644))

	t.Setenv("VAULTKEEPER_PORT", "7070")
	t.Setenv("VAULTKEEPER_READ_TIMEOUT", "45s")
	t.Setenv("VAULTKEEPER_IGNORE_PATTERNS", "**/.git, **/tmp")

	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(path))

	cfg := cm.GetConfig()
	assert.Equal(t, 7070, cfg.Server.Port, "environment wins over file")
	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"**/.git", "**/tmp"}, cfg.Scanner.IgnorePatterns)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Equal(t, 8080, cm.GetConfig().Server.Port)
}

func TestValidationRejectsBadValues(t *testing.T) {
	t.Setenv("VAULTKEEPER_PORT", "70000")
	cm := NewConfigManager()
	assert.Error(t, cm.LoadConfig(""))
}

func TestDerivedPaths(t *testing.T) {
	t.Setenv("VAULTKEEPER_DATA_DIR", "/var/lib/vaultkeeper")
	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(""))

	cfg := cm.GetConfig()
	assert.Equal(t, filepath.Join("/var/lib/vaultkeeper", "vaultkeeper.db"), cfg.Database.DatabasePath)
	assert.Equal(t, filepath.Join("/var/lib/vaultkeeper", "thumbnails"), cfg.Thumbnails.OutputDir)
}
