package tools

import (
	"context"
	"encoding/json"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/lsp"
	"github.com/empathic-dev/codemcp/internal/mcperr"
	"github.com/empathic-dev/codemcp/internal/security"
)

// DefinitionTool resolves the definition location(s) of the symbol at a
// position.
type DefinitionTool struct {
	manager   lspManager
	validator *security.Validator
}

func NewDefinitionTool(manager *lsp.Manager, validator *security.Validator) *DefinitionTool {
	return &DefinitionTool{manager: manager, validator: validator}
}

func (t *DefinitionTool) Name() string { return "lsp_definition" }

func (t *DefinitionTool) Description() string {
	return "Find the definition location of the symbol at a file position."
}

func (t *DefinitionTool) Schema() map[string]any { return positionSchema(nil) }

func (t *DefinitionTool) Execute(ctx context.Context, args map[string]any, cfg *config.ServerConfig) (any, *mcperr.ToolError) {
	client, uri, pos, toolErr := lspClientForQuery(ctx, args, t.manager, t.validator)
	if toolErr != nil {
		return nil, toolErr
	}

	raw, err := client.Request(ctx, "textDocument/definition", lsp.TextDocumentPositionParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
		Position:     pos,
	})
	if err != nil {
		return nil, mcperr.Wrap(mcperr.LSP, "definition request failed", err)
	}

	locations, err := decodeLocations(raw)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.LSP, "malformed definition response", err)
	}
	return flattenLocations(locations), nil
}

// decodeLocations accepts either a single Location or a Location array, the
// two shapes textDocument/definition servers are free to return.
func decodeLocations(raw json.RawMessage) ([]lsp.Location, error) {
	var list []lsp.Location
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var single lsp.Location
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	if single.URI == "" {
		return nil, nil
	}
	return []lsp.Location{single}, nil
}

func flattenLocations(locations []lsp.Location) []map[string]any {
	out := make([]map[string]any, 0, len(locations))
	for _, loc := range locations {
		entry := flattenRange(loc.Range)
		entry["uri"] = loc.URI
		out = append(out, entry)
	}
	return out
}
