package tools

import (
	"context"
	"os"
	"path/filepath"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/mcperr"
	"github.com/empathic-dev/codemcp/internal/security"
)

// WriteFileTool writes (creating or overwriting) a file within the project
// root, rejecting denied extensions and any path escaping the root.
type WriteFileTool struct{}

func NewWriteFileTool() *WriteFileTool { return &WriteFileTool{} }

func (t *WriteFileTool) Name() string { return "write_file" }

func (t *WriteFileTool) Description() string {
	return "Write (creating or overwriting) a file within the project root."
}

func (t *WriteFileTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string", "description": "File path, relative to the project root."},
			"content": map[string]any{"type": "string", "description": "Full file content to write."},
		},
		"required": []string{"path", "content"},
	}
}

func (t *WriteFileTool) Execute(ctx context.Context, args map[string]any, cfg *config.ServerConfig) (any, *mcperr.ToolError) {
	path, toolErr := requiredString(args, "path")
	if toolErr != nil {
		return nil, toolErr
	}
	content, toolErr := requiredString(args, "content")
	if toolErr != nil {
		return nil, toolErr
	}

	validator := security.New(cfg.RootDir)
	resolved, err := validator.ResolveForWrite(path)
	if err != nil {
		return nil, mcperr.AsToolError(err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, mcperr.Wrap(mcperr.Filesystem, "cannot create parent directory for "+path, err)
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return nil, mcperr.Wrap(mcperr.Filesystem, "cannot write "+path, err)
	}
	return map[string]any{"path": path, "bytes_written": len(content)}, nil
}
