package tools

import (
	"context"
	"encoding/json"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/lsp"
	"github.com/empathic-dev/codemcp/internal/mcperr"
	"github.com/empathic-dev/codemcp/internal/security"
)

// SymbolsTool lists symbols, either within one file (no query) or across
// the workspace of the project containing file_path (query set). file_path
// and language are required in both modes.
type SymbolsTool struct {
	manager   lspManager
	validator *security.Validator
}

func NewSymbolsTool(manager *lsp.Manager, validator *security.Validator) *SymbolsTool {
	return &SymbolsTool{manager: manager, validator: validator}
}

func (t *SymbolsTool) Name() string { return "lsp_symbols" }

func (t *SymbolsTool) Description() string {
	return "List document symbols for a file, or search workspace symbols by query."
}

func (t *SymbolsTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{"type": "string", "description": "Path to the file to list symbols for, relative to the project root."},
			"language":  map[string]any{"type": "string", "description": "Language id; required with file_path."},
			"query":     map[string]any{"type": "string", "description": "Workspace-wide symbol search query; file_path still identifies the project to search."},
		},
	}
}

func (t *SymbolsTool) Execute(ctx context.Context, args map[string]any, cfg *config.ServerConfig) (any, *mcperr.ToolError) {
	if query, ok := args["query"].(string); ok && query != "" {
		return t.workspaceSymbols(ctx, args, query)
	}
	return t.documentSymbols(ctx, args)
}

func (t *SymbolsTool) documentSymbols(ctx context.Context, args map[string]any) (any, *mcperr.ToolError) {
	filePath, toolErr := requiredString(args, "file_path")
	if toolErr != nil {
		return nil, toolErr
	}
	language, toolErr := requiredString(args, "language")
	if toolErr != nil {
		return nil, toolErr
	}

	client, uri, toolErr := openPositionalDocument(ctx, t.manager, t.validator, filePath, language)
	if toolErr != nil {
		return nil, toolErr
	}

	raw, err := client.Request(ctx, "textDocument/documentSymbol", lsp.DocumentSymbolParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
	})
	if err != nil {
		return nil, mcperr.Wrap(mcperr.LSP, "documentSymbol request failed", err)
	}

	symbols, err := decodeFlatSymbols(raw)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.LSP, "malformed documentSymbol response", err)
	}
	return flattenSymbols(symbols), nil
}

// workspaceSymbols requires a language because workspace/symbol is issued
// to the (root, language) client of the project containing file_path,
// which is spawned if it is not running yet.
func (t *SymbolsTool) workspaceSymbols(ctx context.Context, args map[string]any, query string) (any, *mcperr.ToolError) {
	language, toolErr := requiredString(args, "language")
	if toolErr != nil {
		return nil, toolErr
	}
	filePath, toolErr := requiredString(args, "file_path")
	if toolErr != nil {
		return nil, mcperr.New(mcperr.Protocol, "workspace symbol search requires file_path to identify the project")
	}

	client, _, toolErr := openPositionalDocument(ctx, t.manager, t.validator, filePath, language)
	if toolErr != nil {
		return nil, toolErr
	}

	raw, err := client.Request(ctx, "workspace/symbol", lsp.WorkspaceSymbolParams{Query: query})
	if err != nil {
		return nil, mcperr.Wrap(mcperr.LSP, "workspace/symbol request failed", err)
	}

	symbols, err := decodeFlatSymbols(raw)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.LSP, "malformed workspace/symbol response", err)
	}
	return flattenSymbols(symbols), nil
}

func decodeFlatSymbols(raw json.RawMessage) ([]lsp.SymbolInformation, error) {
	var symbols []lsp.SymbolInformation
	if err := json.Unmarshal(raw, &symbols); err != nil {
		return nil, err
	}
	return symbols, nil
}

func flattenSymbols(symbols []lsp.SymbolInformation) []map[string]any {
	out := make([]map[string]any, 0, len(symbols))
	for _, s := range symbols {
		entry := flattenRange(s.Location.Range)
		entry["name"] = s.Name
		entry["kind"] = s.Kind
		entry["uri"] = s.Location.URI
		out = append(out, entry)
	}
	return out
}
