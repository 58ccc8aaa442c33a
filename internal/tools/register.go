package tools

import (
	"github.com/empathic-dev/codemcp/internal/lsp"
	"github.com/empathic-dev/codemcp/internal/security"
	"github.com/empathic-dev/codemcp/internal/tool"
)

// Register builds the startup tool registry: file I/O, shell execution, and
// (when manager is non-nil) the six LSP-backed semantic tools. manager may
// be nil to run with LSP support disabled.
func Register(manager *lsp.Manager, rootDir string) (*tool.Registry, error) {
	registry := tool.NewRegistry()
	validator := security.New(rootDir)

	plain := []tool.Tool{
		NewReadFileTool(),
		NewWriteFileTool(),
		NewListFilesTool(),
		NewDeleteFileTool(),
		NewShellTool(),
	}
	for _, t := range plain {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}

	if manager == nil {
		return registry, nil
	}

	lspTools := []tool.Tool{
		NewHoverTool(manager, validator),
		NewCompletionTool(manager, validator),
		NewReferencesTool(manager, validator),
		NewDefinitionTool(manager, validator),
		NewDiagnosticsTool(manager, validator),
		NewSymbolsTool(manager, validator),
	}
	for _, t := range lspTools {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
