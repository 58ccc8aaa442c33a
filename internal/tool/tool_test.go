package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/mcperr"
)

type stubTool struct {
	name string
}

func (s stubTool) Name() string        { return s.name }
func (s stubTool) Description() string { return "stub tool " + s.name }
func (s stubTool) Schema() map[string]any {
	return map[string]any{"type": "object"}
}
func (s stubTool) Execute(ctx context.Context, args map[string]any, cfg *config.ServerConfig) (any, *mcperr.ToolError) {
	return "ok", nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubTool{name: "echo"}))

	got, ok := r.Get("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", got.Name())
}

func TestRegistry_DuplicateRegisterFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubTool{name: "echo"}))
	err := r.Register(stubTool{name: "echo"})
	require.Error(t, err)
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubTool{name: "a"}))
	require.NoError(t, r.Register(stubTool{name: "b"}))

	infos := r.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, "b", infos[1].Name)
}

func TestRegistry_ExecuteUnknown(t *testing.T) {
	r := NewRegistry()
	_, toolErr := r.Execute(context.Background(), "missing", nil, nil)
	require.NotNil(t, toolErr)
	assert.Equal(t, mcperr.Protocol, toolErr.Category())
}

func TestRegistry_ExecuteKnown(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubTool{name: "echo"}))
	result, toolErr := r.Execute(context.Background(), "echo", nil, nil)
	require.Nil(t, toolErr)
	assert.Equal(t, "ok", result)
}
