package tools

import (
	"context"
	"os"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/mcperr"
	"github.com/empathic-dev/codemcp/internal/security"
)

// DeleteFileTool removes a single file (not a directory) within the
// project root.
type DeleteFileTool struct{}

func NewDeleteFileTool() *DeleteFileTool { return &DeleteFileTool{} }

func (t *DeleteFileTool) Name() string { return "delete_file" }

func (t *DeleteFileTool) Description() string {
	return "Delete a single file within the project root."
}

func (t *DeleteFileTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "File path, relative to the project root."},
		},
		"required": []string{"path"},
	}
}

func (t *DeleteFileTool) Execute(ctx context.Context, args map[string]any, cfg *config.ServerConfig) (any, *mcperr.ToolError) {
	path, toolErr := requiredString(args, "path")
	if toolErr != nil {
		return nil, toolErr
	}

	validator := security.New(cfg.RootDir)
	resolved, err := validator.Resolve(path)
	if err != nil {
		return nil, mcperr.AsToolError(err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.Filesystem, path+" not found", err)
	}
	if info.IsDir() {
		return nil, mcperr.New(mcperr.Filesystem, path+" is a directory; delete_file only removes files")
	}
	if err := os.Remove(resolved); err != nil {
		return nil, mcperr.Wrap(mcperr.Filesystem, "cannot delete "+path, err)
	}
	return map[string]any{"path": path, "deleted": true}, nil
}
