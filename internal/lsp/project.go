package lsp

import (
	"os"
	"path/filepath"

	"github.com/empathic-dev/codemcp/internal/config"
)

// discoverRoot walks up from startDir looking for any of markers, reusing
// the same ancestor-walk the config package uses to find a project's own
// configuration directory.
func discoverRoot(startDir string, markers []string) string {
	return config.DiscoverProjectRoot(startDir, markers)
}

// statDir reports whether path is a directory. The second return mirrors
// os.Stat's error so callers can tell "doesn't exist" from "is a file".
func statDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func dirOf(path string) string {
	return filepath.Dir(path)
}
