package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/lsp"
	"github.com/empathic-dev/codemcp/internal/mcperr"
	"github.com/empathic-dev/codemcp/internal/security"
)

// defaultDiagnosticsWait bounds how long lsp_diagnostics waits for a
// publishDiagnostics push before treating the file as clean.
const defaultDiagnosticsWait = 2 * time.Second

// DiagnosticsTool is the one LSP-backed tool that does not issue a
// request: it opens the document and awaits the server's asynchronous
// textDocument/publishDiagnostics push, treating a timeout as "no
// diagnostics" rather than failure.
type DiagnosticsTool struct {
	manager   lspManager
	validator *security.Validator
}

func NewDiagnosticsTool(manager *lsp.Manager, validator *security.Validator) *DiagnosticsTool {
	return &DiagnosticsTool{manager: manager, validator: validator}
}

func (t *DiagnosticsTool) Name() string { return "lsp_diagnostics" }

func (t *DiagnosticsTool) Description() string {
	return "Fetch the language server's current diagnostics (errors, warnings) for a file."
}

func (t *DiagnosticsTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{"type": "string", "description": "Path to the file, relative to the project root."},
			"language":  map[string]any{"type": "string", "description": "Language id: go, rust, typescript, javascript, or python."},
		},
		"required": []string{"file_path", "language"},
	}
}

func (t *DiagnosticsTool) Execute(ctx context.Context, args map[string]any, cfg *config.ServerConfig) (any, *mcperr.ToolError) {
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

	raw, ok := client.WaitForNotification(ctx, "textDocument/publishDiagnostics", defaultDiagnosticsWait)
	if !ok {
		return map[string]any{"uri": uri, "diagnostics": []map[string]any{}}, nil
	}

	var params lsp.PublishDiagnosticsParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, mcperr.Wrap(mcperr.LSP, "malformed diagnostics notification", err)
	}
	if params.URI != uri {
		// A push for a different file arrived first (rare, but possible with
		// multiple open documents); treat as "no diagnostics yet" rather
		// than misreport another file's results.
		return map[string]any{"uri": uri, "diagnostics": []map[string]any{}}, nil
	}

	out := make([]map[string]any, 0, len(params.Diagnostics))
	for _, d := range params.Diagnostics {
		entry := flattenRange(d.Range)
		entry["severity"] = d.Severity
		entry["message"] = d.Message
		entry["source"] = d.Source
		out = append(out, entry)
	}
	return map[string]any{"uri": uri, "diagnostics": out}, nil
}
