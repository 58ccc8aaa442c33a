// Package tools implements the leaf tool.Tool bodies: plain file/shell
// operations and the LSP-backed semantic queries. Every tool here is a
// thin adapter; the hard state (sessions, documents, path confinement)
// lives in internal/lsp and internal/security.
package tools

import (
	"context"

	"github.com/empathic-dev/codemcp/internal/lsp"
	"github.com/empathic-dev/codemcp/internal/mcperr"
	"github.com/empathic-dev/codemcp/internal/security"
)

func requiredString(args map[string]any, key string) (string, *mcperr.ToolError) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", mcperr.New(mcperr.Protocol, "missing required argument: "+key)
	}
	return v, nil
}

func optionalString(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func optionalInt(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// lspManager is the subset of *lsp.Manager the LSP-backed tools need.
type lspManager interface {
	GetClient(ctx context.Context, filePath, language string) (*lsp.Client, error)
	Documents(root, language string) *lsp.DocumentStore
}

// openPositionalDocument resolves file_path against the project root,
// spawns or reuses the (root, language) client, and synchronizes the
// document before a position-dependent LSP request. Every LSP-backed tool
// calls this first, per the uniform shape spec.md §4.7 describes.
func openPositionalDocument(ctx context.Context, mgr lspManager, validator *security.Validator, relPath, language string) (*lsp.Client, string, *mcperr.ToolError) {
	absPath, err := validator.Resolve(relPath)
	if err != nil {
		return nil, "", mcperr.AsToolError(err)
	}

	client, err := mgr.GetClient(ctx, absPath, language)
	if err != nil {
		return nil, "", mcperr.Wrap(mcperr.LSP, "not a recognized project", err)
	}

	uri := "file://" + absPath
	docs := mgr.Documents(client.Root, language)
	if err := lsp.EnsureDocumentOpen(ctx, client, docs, absPath, uri, language); err != nil {
		return nil, "", mcperr.Wrap(mcperr.LSP, "failed to synchronize document", err)
	}
	return client, uri, nil
}

func flattenRange(r lsp.Range) map[string]any {
	return map[string]any{
		"start_line":      r.Start.Line,
		"start_character": r.Start.Character,
		"end_line":        r.End.Line,
		"end_character":   r.End.Character,
	}
}

func positionSchema(extra map[string]any, required ...string) map[string]any {
	props := map[string]any{
		"file_path": map[string]any{"type": "string", "description": "Path to the file, relative to the project root."},
		"language":  map[string]any{"type": "string", "description": "Language id: go, rust, typescript, javascript, or python."},
		"line":      map[string]any{"type": "integer", "description": "Zero-based line number."},
		"character": map[string]any{"type": "integer", "description": "Zero-based character offset within the line."},
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   append([]string{"file_path", "language", "line", "character"}, required...),
	}
}

func lspClientForQuery(ctx context.Context, args map[string]any, mgr lspManager, validator *security.Validator) (*lsp.Client, string, lsp.Position, *mcperr.ToolError) {
	filePath, toolErr := requiredString(args, "file_path")
	if toolErr != nil {
		return nil, "", lsp.Position{}, toolErr
	}
	language, toolErr := requiredString(args, "language")
	if toolErr != nil {
		return nil, "", lsp.Position{}, toolErr
	}
	pos := lsp.Position{Line: optionalInt(args, "line", 0), Character: optionalInt(args, "character", 0)}

	client, uri, toolErr := openPositionalDocument(ctx, mgr, validator, filePath, language)
	if toolErr != nil {
		return nil, "", lsp.Position{}, toolErr
	}
	return client, uri, pos, nil
}
