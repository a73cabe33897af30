package marlinconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: these tests use t.Setenv and so cannot run t.Parallel().

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MARLIN_CONFIG", "")
	t.Setenv("MARLIN_DB_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tempHome, ".marlin"), cfg.DataDir)
	assert.Equal(t, 100, cfg.Watch.DebounceMS)
	assert.Equal(t, 7, cfg.Snapshot.Retention)
	assert.Equal(t, filepath.Join(tempHome, ".marlin", "index.db"), cfg.DBPath())
	assert.Equal(t, filepath.Join(tempHome, ".marlin", "backups"), cfg.BackupDir())
}

func TestLoadReadsConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MARLIN_CONFIG", "")
	t.Setenv("MARLIN_DB_PATH", "")

	content := `
data_dir: ` + filepath.Join(tempHome, "custom") + `
watch:
  debounce_ms: 250
snapshot:
  retention: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(tempHome, ".marlin.yaml"), []byte(content), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tempHome, "custom"), cfg.DataDir)
	assert.Equal(t, 250, cfg.Watch.DebounceMS)
	assert.Equal(t, 3, cfg.Snapshot.Retention)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MARLIN_CONFIG", "")

	content := "watch:\n  debounce_ms: 250\n"
	require.NoError(t, os.WriteFile(filepath.Join(tempHome, ".marlin.yaml"), []byte(content), 0o644))
	t.Setenv("MARLIN_WATCH_DEBOUNCE_MS", "500")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Watch.DebounceMS)
}

func TestLoadMarlinDBPathOverridesDerivedPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MARLIN_CONFIG", "")
	override := filepath.Join(tempHome, "elsewhere", "store.db")
	t.Setenv("MARLIN_DB_PATH", override)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, override, cfg.DBPath())
}

func TestLoadExpandsTildeInConfigPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MARLIN_DB_PATH", "")

	customDir := filepath.Join(tempHome, "alt-config")
	require.NoError(t, os.MkdirAll(customDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(customDir, "config.yaml"), []byte("snapshot:\n  retention: 9\n"), 0o644))
	t.Setenv("MARLIN_CONFIG", "~/alt-config/config.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Snapshot.Retention)
}

func TestLoadRejectsInvalidRetention(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MARLIN_CONFIG", "")
	t.Setenv("MARLIN_DB_PATH", "")
	t.Setenv("MARLIN_SNAPSHOT_RETENTION", "-1")

	_, err := Load()
	assert.Error(t, err)
}
