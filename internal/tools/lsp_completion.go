package tools

import (
	"context"
	"encoding/json"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/lsp"
	"github.com/empathic-dev/codemcp/internal/mcperr"
	"github.com/empathic-dev/codemcp/internal/security"
)

// CompletionTool lists completion candidates at a position.
type CompletionTool struct {
	manager   lspManager
	validator *security.Validator
}

func NewCompletionTool(manager *lsp.Manager, validator *security.Validator) *CompletionTool {
	return &CompletionTool{manager: manager, validator: validator}
}

func (t *CompletionTool) Name() string { return "lsp_completion" }

func (t *CompletionTool) Description() string {
	return "List completion candidates at a file position."
}

func (t *CompletionTool) Schema() map[string]any { return positionSchema(nil) }

func (t *CompletionTool) Execute(ctx context.Context, args map[string]any, cfg *config.ServerConfig) (any, *mcperr.ToolError) {
	client, uri, pos, toolErr := lspClientForQuery(ctx, args, t.manager, t.validator)
	if toolErr != nil {
		return nil, toolErr
	}

	raw, err := client.Request(ctx, "textDocument/completion", lsp.CompletionParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
		Position:     pos,
	})
	if err != nil {
		return nil, mcperr.Wrap(mcperr.LSP, "completion request failed", err)
	}

	// A completion reply is either a bare CompletionItem[] or a
	// CompletionList{isIncomplete, items}; normalize to a plain item list.
	var asList struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(raw, &asList); err == nil && asList.Items != nil {
		return decodeCompletionItems(asList.Items), nil
	}
	var asArray []json.RawMessage
	if err := json.Unmarshal(raw, &asArray); err != nil {
		return nil, mcperr.Wrap(mcperr.LSP, "malformed completion response", err)
	}
	return decodeCompletionItems(asArray), nil
}

func decodeCompletionItems(raw []json.RawMessage) []map[string]any {
	items := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		var item struct {
			Label  string `json:"label"`
			Kind   int    `json:"kind,omitempty"`
			Detail string `json:"detail,omitempty"`
		}
		if err := json.Unmarshal(r, &item); err != nil {
			continue
		}
		items = append(items, map[string]any{"label": item.Label, "kind": item.Kind, "detail": item.Detail})
	}
	return items
}
