package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/mcperr"
	"github.com/empathic-dev/codemcp/internal/security"
)

// ReadFileTool reads a file's contents, confined to the project root and
// capped at the validator's configured read size.
type ReadFileTool struct{}

func NewReadFileTool() *ReadFileTool { return &ReadFileTool{} }

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Description() string {
	return "Read the full contents of a file within the project root."
}

func (t *ReadFileTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "File path, relative to the project root."},
		},
		"required": []string{"path"},
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, args map[string]any, cfg *config.ServerConfig) (any, *mcperr.ToolError) {
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
		return nil, mcperr.Wrap(mcperr.Filesystem, fmt.Sprintf("%s not found", path), err)
	}
	if info.IsDir() {
		return nil, mcperr.New(mcperr.Filesystem, path+" is a directory, not a file")
	}
	if info.Size() > validator.MaxReadBytes() {
		return nil, mcperr.New(mcperr.Filesystem, fmt.Sprintf("%s exceeds the read size cap of %d bytes", path, validator.MaxReadBytes()))
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.Filesystem, "cannot read "+path, err)
	}
	return string(data), nil
}
