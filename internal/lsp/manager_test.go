package lsp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GetClient_UnknownLanguage(t *testing.T) {
	m := NewManager(DefaultServerSpecs, nil)
	_, err := m.GetClient(context.Background(), "/tmp/foo.rb", "ruby")
	require.Error(t, err)
}

func TestManager_GetClient_NoProjectRoot(t *testing.T) {
	root := t.TempDir()
	m := NewManager(DefaultServerSpecs, nil)
	_, err := m.GetClient(context.Background(), filepath.Join(root, "main.go"), "go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a recognized")
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "pkg", "inner")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0644))

	found := findProjectRoot(filepath.Join(sub, "file.go"), []string{"go.mod"})
	assert.Equal(t, root, found)
}

func TestManager_Documents_CreatesOnDemand(t *testing.T) {
	m := NewManager(DefaultServerSpecs, nil)
	ds1 := m.Documents("/proj", "go")
	ds2 := m.Documents("/proj", "go")
	assert.Same(t, ds1, ds2)
}

func TestManager_Shutdown_EmptyIsNoOp(t *testing.T) {
	m := NewManager(DefaultServerSpecs, nil)
	m.Shutdown() // must not panic with no live clients
}
