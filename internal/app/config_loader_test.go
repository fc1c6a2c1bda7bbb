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
	chdir(t, t.TempDir())

	config, err := LoadConfig("")
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, 5050, config.Server.Port)
	assert.Equal(t, filepath.Join(home, ".reduce", "downloads.db"), config.Store.DatabasePath)
	assert.Equal(t, 10*time.Second, config.Fingerprint.HeadTimeout)
	assert.Equal(t, 20*time.Second, config.Fingerprint.SampleTimeout)
	assert.Equal(t, "http://127.0.0.1:5050", config.Client.ServerURL)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 6060
store:
  database_path: ` + filepath.Join(dir, "db.sqlite") + `
fingerprint:
  sample_timeout: 5s
watcher:
  excluded_dirs: [".git", "tmp"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 6060, config.Server.Port)
	assert.Equal(t, filepath.Join(dir, "db.sqlite"), config.Store.DatabasePath)
	assert.Equal(t, 5*time.Second, config.Fingerprint.SampleTimeout)
	assert.Equal(t, 10*time.Second, config.Fingerprint.HeadTimeout, "unset keys keep defaults")
	assert.Equal(t, []string{".git", "tmp"}, config.Watcher.ExcludedDirs)
}

func TestLoadConfig_ShorterExcludedDirsReplacesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("watcher:\n  excluded_dirs: [\"tmp\"]\n"), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"tmp"}, config.Watcher.ExcludedDirs)
}

func TestLoadConfig_ExcludedDirsDefaultWhenUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 6060\n"), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{".git", "node_modules", ".cache"}, config.Watcher.ExcludedDirs)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("REDUCE_SERVER_PORT", "7070")
	t.Setenv("REDUCE_LOGGING_LEVEL", "debug")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 70000\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x"), expandPath("~/x"))
	assert.Equal(t, home+"/y", expandPath("$HOME/y"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}
