package tools

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/mcperr"
	"github.com/empathic-dev/codemcp/internal/security"
)

var listSkippedDirs = map[string]bool{".git": true, "node_modules": true, "vendor": true}

// ListFilesTool enumerates files under a directory within the project root.
type ListFilesTool struct{}

func NewListFilesTool() *ListFilesTool { return &ListFilesTool{} }

func (t *ListFilesTool) Name() string { return "list_files" }

func (t *ListFilesTool) Description() string {
	return "List files under a directory within the project root, recursively."
}

func (t *ListFilesTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "Directory path, relative to the project root. Defaults to the root itself."},
		},
	}
}

func (t *ListFilesTool) Execute(ctx context.Context, args map[string]any, cfg *config.ServerConfig) (any, *mcperr.ToolError) {
	path := optionalString(args, "path", ".")

	validator := security.New(cfg.RootDir)
	resolved, err := validator.Resolve(path)
	if err != nil {
		return nil, mcperr.AsToolError(err)
	}

	var entries []string
	walkErr := filepath.WalkDir(resolved, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != resolved && listSkippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(cfg.RootDir, p)
		if relErr != nil {
			return nil
		}
		entries = append(entries, rel)
		return nil
	})
	if walkErr != nil {
		return nil, mcperr.Wrap(mcperr.Filesystem, "cannot list "+path, walkErr)
	}

	sort.Strings(entries)
	return entries, nil
}
