package tools

import (
	"context"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/lsp"
	"github.com/empathic-dev/codemcp/internal/mcperr"
	"github.com/empathic-dev/codemcp/internal/security"
)

// ReferencesTool lists every reference to the symbol at a position.
type ReferencesTool struct {
	manager   lspManager
	validator *security.Validator
}

func NewReferencesTool(manager *lsp.Manager, validator *security.Validator) *ReferencesTool {
	return &ReferencesTool{manager: manager, validator: validator}
}

func (t *ReferencesTool) Name() string { return "lsp_references" }

func (t *ReferencesTool) Description() string {
	return "List references to the symbol at a file position."
}

func (t *ReferencesTool) Schema() map[string]any {
	return positionSchema(map[string]any{
		"include_declaration": map[string]any{"type": "boolean", "description": "Whether to include the declaration itself. Defaults to true."},
	})
}

func (t *ReferencesTool) Execute(ctx context.Context, args map[string]any, cfg *config.ServerConfig) (any, *mcperr.ToolError) {
	client, uri, pos, toolErr := lspClientForQuery(ctx, args, t.manager, t.validator)
	if toolErr != nil {
		return nil, toolErr
	}

	includeDecl := true
	if v, ok := args["include_declaration"].(bool); ok {
		includeDecl = v
	}

	raw, err := client.Request(ctx, "textDocument/references", lsp.ReferenceParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
		Position:     pos,
		Context:      lsp.ReferenceContext{IncludeDeclaration: includeDecl},
	})
	if err != nil {
		return nil, mcperr.Wrap(mcperr.LSP, "references request failed", err)
	}

	locations, err := decodeLocations(raw)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.LSP, "malformed references response", err)
	}
	return flattenLocations(locations), nil
}
