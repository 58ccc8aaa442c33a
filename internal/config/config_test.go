package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEnv(t *testing.T, kvs map[string]string) {
	t.Helper()
	for k, v := range kvs {
		t.Setenv(k, v)
	}
}

func TestFromEnv_RequiresRootDir(t *testing.T) {
	t.Setenv("ROOT_DIR", "")
	os.Unsetenv("ROOT_DIR")
	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnv_RejectsMissingRootDir(t *testing.T) {
	withEnv(t, map[string]string{"ROOT_DIR": "/nonexistent/path/does/not/exist"})
	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnv_Defaults(t *testing.T) {
	root := t.TempDir()
	withEnv(t, map[string]string{"ROOT_DIR": root})

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, defaultRequestTimeout, cfg.RequestTimeout)
	assert.True(t, cfg.IdleMonitorEnabled)
}

func TestFromEnv_RejectsBadLogLevel(t *testing.T) {
	root := t.TempDir()
	withEnv(t, map[string]string{"ROOT_DIR": root, "LOGLEVEL": "verbose"})
	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnv_RejectsOutOfRangeTimeout(t *testing.T) {
	root := t.TempDir()
	withEnv(t, map[string]string{"ROOT_DIR": root, "MCP_REQUEST_TIMEOUT": "600"})
	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnv_ParsesAddPath(t *testing.T) {
	root := t.TempDir()
	withEnv(t, map[string]string{"ROOT_DIR": root, "ADD_PATH": "/usr/local/bin:/opt/tools"})
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/local/bin", "/opt/tools"}, cfg.AddPath)
}

func TestServerConfig_Summary(t *testing.T) {
	cfg := &ServerConfig{RootDir: "/proj", LogLevel: "info", RequestTimeout: defaultRequestTimeout}
	assert.Contains(t, cfg.Summary(), "lsp=disabled")
}

func TestDiscoverProjectRoot(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0644))

	found := DiscoverProjectRoot(sub, []string{"go.mod"})
	assert.Equal(t, root, found)
}

func TestDiscoverProjectRoot_NotFound(t *testing.T) {
	root := t.TempDir()
	found := DiscoverProjectRoot(root, []string{"Cargo.toml"})
	assert.Equal(t, "", found)
}
