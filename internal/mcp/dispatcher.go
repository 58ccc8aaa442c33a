package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/lsp"
	"github.com/empathic-dev/codemcp/internal/mcperr"
	"github.com/empathic-dev/codemcp/internal/security"
	"github.com/empathic-dev/codemcp/internal/tool"
)

const (
	serverName    = "codemcp"
	serverVersion = "1.0.0"
)

// lspWarmer is the minimal surface the dispatcher needs to fire-and-forget
// a warm-up spawn; *lsp.Manager satisfies it.
type lspWarmer interface {
	GetClient(ctx context.Context, filePath, language string) (*lsp.Client, error)
}

// Dispatcher routes a parsed Request to the matching handler, enforcing
// the per-tool timeout and shaping tool errors with category-aware
// guidance before they reach the wire.
type Dispatcher struct {
	registry  *tool.Registry
	cfg       *config.ServerConfig
	validator *security.Validator
	lspMgr    lspWarmer
}

// NewDispatcher builds a Dispatcher. lspMgr may be nil if the server was
// started without LSP support; LSP warm-up is then skipped.
func NewDispatcher(registry *tool.Registry, cfg *config.ServerConfig, lspMgr lspWarmer) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		cfg:       cfg,
		validator: security.New(cfg.RootDir),
		lspMgr:    lspMgr,
	}
}

// Handle routes req to its handler. It returns nil for notifications (no
// reply shape is ever emitted for those) and for unroutable methods with no
// id to reply to.
func (d *Dispatcher) Handle(ctx context.Context, req *Request) *Response {
	if strings.HasPrefix(req.Method, "notifications/") {
		return nil
	}

	switch req.Method {
	case "initialize":
		return d.handleInitialize(req)
	case "tools/list":
		return d.handleToolsList(req)
	case "tools/call":
		return d.handleToolsCall(ctx, req)
	case "prompts/list":
		return d.handlePromptsList(req)
	case "prompts/get":
		return d.handlePromptsGet(req)
	case "resources/list":
		return d.handleResourcesList(req)
	case "resources/read":
		return d.handleResourcesRead(req)
	default:
		if req.IsNotification() {
			return nil
		}
		return errorResponse(req.ID, CodeMethodNotFound, "Method not found: "+req.Method)
	}
}

// handleInitialize must never fail: it advertises capabilities only.
func (d *Dispatcher) handleInitialize(req *Request) *Response {
	return resultResponse(req.ID, initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: capabilitiesOb{
			Tools:     map[string]any{},
			Resources: map[string]any{},
			Prompts:   map[string]any{},
		},
		ServerInfo: serverInfo{Name: serverName, Version: serverVersion},
	})
}

func (d *Dispatcher) handleToolsList(req *Request) *Response {
	infos := d.registry.List()
	defs := make([]toolDefinition, len(infos))
	for i, info := range infos {
		defs[i] = toolDefinition{Name: info.Name, Description: info.Description, InputSchema: info.Schema}
	}
	return resultResponse(req.ID, map[string]any{"tools": defs})
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params: "+err.Error())
	}
	if params.Name == "" {
		return errorResponse(req.ID, CodeInvalidParams, "missing required field: name")
	}

	if _, ok := d.registry.Get(params.Name); !ok {
		return errorResponse(req.ID, CodeMethodNotFound, "Unknown tool: "+params.Name)
	}

	d.maybeWarmLSP(params.Arguments)

	callCtx, cancel := context.WithTimeout(ctx, d.cfg.RequestTimeout)
	defer cancel()

	type outcome struct {
		result any
		toolErr *mcperr.ToolError
	}
	done := make(chan outcome, 1)
	go func() {
		result, toolErr := d.registry.Execute(callCtx, params.Name, params.Arguments, d.cfg)
		done <- outcome{result: result, toolErr: toolErr}
	}()

	select {
	case o := <-done:
		if o.toolErr != nil {
			if callCtx.Err() == context.DeadlineExceeded {
				return errorResponse(req.ID, CodeTimeout,
					fmt.Sprintf("tool %q exceeded timeout of %s", params.Name, d.cfg.RequestTimeout))
			}
			return errorResponse(req.ID, CodeToolError, o.toolErr.Detailed())
		}
		return resultResponse(req.ID, toolCallResult{
			Content: []toolCallContent{{Type: "text", Text: fmt.Sprintf("%v", o.result)}},
			IsError: false,
		})
	case <-callCtx.Done():
		return errorResponse(req.ID, CodeTimeout,
			fmt.Sprintf("tool %q exceeded timeout of %s", params.Name, d.cfg.RequestTimeout))
	}
}

// maybeWarmLSP fires a best-effort, background LSP session warm-up when the
// call's arguments name a project and a language, so indexing can overlap
// with unrelated non-LSP work. Failures are logged, never surfaced: this is
// pure optimization, not part of the tool's contract.
func (d *Dispatcher) maybeWarmLSP(args map[string]any) {
	if d.lspMgr == nil {
		return
	}
	project, _ := args["project"].(string)
	if project == "" {
		return
	}
	language, _ := args["language"].(string)
	if language == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := d.lspMgr.GetClient(ctx, project, language); err != nil {
			log.Debug().Err(err).Str("project", project).Str("language", language).Msg("lsp warm-up failed")
		}
	}()
}
