// Package tool defines the Tool interface and the startup-time registry
// that maps names to tool handles for the dispatcher.
package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/mcperr"
)

// Tool is a capability with a name, description, JSON schema, and an
// execute method. Tools are value-like: immutable after registration and
// safe to call concurrently.
type Tool interface {
	// Name returns the tool's unique name.
	Name() string
	// Description returns a human-readable description of the tool.
	Description() string
	// Schema returns the JSON Schema describing the tool's input.
	Schema() map[string]any
	// Execute runs the tool with the given arguments and configuration.
	Execute(ctx context.Context, args map[string]any, cfg *config.ServerConfig) (any, *mcperr.ToolError)
}

// Info is the name/description/schema triple returned by List, used to
// build the tools/list response without exposing the Tool interface.
type Info struct {
	Name        string
	Description string
	Schema      map[string]any
}

// Registry is a static name-to-tool mapping assembled once at startup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry. Registering a duplicate name is a
// startup-time error, not a silent overwrite.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns tool info for every registered tool, in registration order.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		infos = append(infos, Info{Name: t.Name(), Description: t.Description(), Schema: t.Schema()})
	}
	return infos
}

// Execute runs the named tool with the given arguments. Returns a Protocol
// category ToolError if the name is unknown.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any, cfg *config.ServerConfig) (any, *mcperr.ToolError) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, mcperr.New(mcperr.Protocol, "unknown tool: "+name)
	}
	return t.Execute(ctx, args, cfg)
}
