package tools

import (
	"context"
	"encoding/json"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/lsp"
	"github.com/empathic-dev/codemcp/internal/mcperr"
	"github.com/empathic-dev/codemcp/internal/security"
)

// HoverTool reports the hover text (type signature, doc comment) for the
// symbol at a position.
type HoverTool struct {
	manager   lspManager
	validator *security.Validator
}

func NewHoverTool(manager *lsp.Manager, validator *security.Validator) *HoverTool {
	return &HoverTool{manager: manager, validator: validator}
}

func (t *HoverTool) Name() string { return "lsp_hover" }

func (t *HoverTool) Description() string {
	return "Show hover information (type, signature, documentation) for the symbol at a file position."
}

func (t *HoverTool) Schema() map[string]any { return positionSchema(nil) }

func (t *HoverTool) Execute(ctx context.Context, args map[string]any, cfg *config.ServerConfig) (any, *mcperr.ToolError) {
	client, uri, pos, toolErr := lspClientForQuery(ctx, args, t.manager, t.validator)
	if toolErr != nil {
		return nil, toolErr
	}

	raw, err := client.Request(ctx, "textDocument/hover", lsp.TextDocumentPositionParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
		Position:     pos,
	})
	if err != nil {
		return nil, mcperr.Wrap(mcperr.LSP, "hover request failed", err)
	}

	var result struct {
		Contents any       `json:"contents"`
		Range    *lsp.Range `json:"range,omitempty"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, mcperr.Wrap(mcperr.LSP, "malformed hover response", err)
	}

	out := map[string]any{"contents": result.Contents}
	if result.Range != nil {
		out["range"] = flattenRange(*result.Range)
	}
	return out, nil
}
