package ormconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// changeToDir changes to dir and returns a cleanup that restores the
// original working directory, isolating findConfigFile's upward search.
func changeToDir(t *testing.T, dir string) func() {
	t.Helper()
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() {
		_ = os.Chdir(original)
	}
}

func TestLoad_DefaultsWhenNoFilesPresent(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "go.mod"), []byte("module tmp\n"), 0o600))
	defer changeToDir(t, tempDir)()

	resolved, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":memory:", resolved.DatabasePath)
	assert.Equal(t, "info", resolved.LogLevel)
	assert.False(t, resolved.FromFile)
	assert.False(t, resolved.FromDotenv)
}

func TestLoad_ReadsTomlConfig(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "go.mod"), []byte("module tmp\n"), 0o600))
	toml := "database_path = \"app.db\"\nlog_level = \"debug\"\n\n[pragmas]\ncache_size = \"-20000\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "ormlite.toml"), []byte(toml), 0o600))
	defer changeToDir(t, tempDir)()

	resolved, err := Load()
	require.NoError(t, err)
	assert.True(t, resolved.FromFile)
	assert.Equal(t, "app.db", resolved.DatabasePath)
	assert.Equal(t, "debug", resolved.LogLevel)
	assert.Equal(t, "-20000", resolved.Pragmas["cache_size"])
	assert.Equal(t, "WAL", resolved.Pragmas["journal_mode"], "default pragmas still apply")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "go.mod"), []byte("module tmp\n"), 0o600))
	toml := "database_path = \"app.db\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "ormlite.toml"), []byte(toml), 0o600))
	defer changeToDir(t, tempDir)()

	t.Setenv("ORMLITE_DATABASE_PATH", "/tmp/override.db")
	resolved, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", resolved.DatabasePath)
}

func TestResolveEnvironment_LayersNamedDotenvOverFile(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "go.mod"), []byte("module tmp\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "ormlite.toml"), []byte("database_path = \"dev.db\"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, ".env.production"), []byte("ORMLITE_DATABASE_PATH=prod.db\n"), 0o600))
	defer changeToDir(t, tempDir)()

	resolved, err := ResolveEnvironment("production")
	require.NoError(t, err)
	assert.Equal(t, "prod.db", resolved.DatabasePath)
	assert.True(t, resolved.FromDotenv)
}

func TestResolveEnvironment_FallsBackWhenNamedFileMissing(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "go.mod"), []byte("module tmp\n"), 0o600))
	defer changeToDir(t, tempDir)()

	resolved, err := ResolveEnvironment("staging")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", resolved.DatabasePath)
}

func TestPragmaStatements_SortedDeterministically(t *testing.T) {
	p := PragmaSet{"foreign_keys": "ON", "busy_timeout": "5000"}
	stmts := p.PragmaStatements()
	assert.Equal(t, []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON"}, stmts)
}
