package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(10), cfg.Uploads.MaxSizeMB)
	assert.Equal(t, 0.7, cfg.Analysis.DeepfakeThreshold)
	assert.Equal(t, 20, cfg.Limits.Sightengine.PerMinute)
	assert.False(t, cfg.SightengineConfigured())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9090
uploads:
  dir: /tmp/media
  maxSizeMB: 25
analysis:
  deepfakeThreshold: 0.5
providers:
  sightengine:
    user: u-123
    secret: s-456
limits:
  sightengine:
    perMinute: 5
    perHour: 50
    perDay: 500
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/media", cfg.Uploads.Dir)
	assert.Equal(t, int64(25*1024*1024), cfg.MaxUploadBytes())
	assert.Equal(t, 0.5, cfg.Analysis.DeepfakeThreshold)
	assert.True(t, cfg.SightengineConfigured())
	assert.Equal(t, 5, cfg.Limits.Sightengine.PerMinute)
	// Sections absent from the file keep their defaults.
	assert.Equal(t, 10, cfg.Limits.Resemble.PerMinute)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  sightengine:\n    user: from-file\n"), 0o600))

	t.Setenv("SIGHTENGINE_USER", "from-env")
	t.Setenv("SIGHTENGINE_SECRET", "secret-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Providers.Sightengine.User)
	assert.True(t, cfg.SightengineConfigured())
}
