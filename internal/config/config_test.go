package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Project.Root)
	assert.Equal(t, DefaultMaxFileCount, cfg.Index.MaxFileCount)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	toml := `
log_level = "debug"

[index]
max_file_count = 500

[ruby]
version = "3.2"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rubylsp.toml"), []byte(toml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 500, cfg.Index.MaxFileCount)
	assert.Equal(t, "3.2", cfg.Ruby.Version)
	assert.Equal(t, dir, cfg.Project.Root, "Load must pin Project.Root to the requested root even after unmarshaling a file that didn't set it")
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rubylsp.toml"), []byte("not = [valid"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestApplyInitializationOptions_OnlyOverridesSetFields(t *testing.T) {
	cfg := Default()
	cfg.Ruby.Version = "auto"
	cfg.LogLevel = "info"

	cfg.ApplyInitializationOptions(InitializationOptions{RubyVersion: "3.1"})

	assert.Equal(t, "3.1", cfg.Ruby.Version)
	assert.Equal(t, "info", cfg.LogLevel, "fields absent from InitializationOptions must not be touched")
}

func TestWorkerCount_ExplicitOverride(t *testing.T) {
	cfg := Default()
	cfg.Performance.ParallelFileWorkers = 7
	assert.Equal(t, 7, cfg.WorkerCount())
}

func TestWorkerCount_AutoDetectIsPositive(t *testing.T) {
	cfg := Default()
	cfg.Performance.ParallelFileWorkers = 0
	assert.GreaterOrEqual(t, cfg.WorkerCount(), 1)
}
