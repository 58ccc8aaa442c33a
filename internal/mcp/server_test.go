package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/mcperr"
	"github.com/empathic-dev/codemcp/internal/tool"
)

// stubTool is a minimal tool.Tool implementation for exercising the
// dispatcher without touching the filesystem or a real LSP client.
type stubTool struct {
	name   string
	desc   string
	schema map[string]any
	result any
	err    *mcperr.ToolError
	delay  time.Duration
}

func (s *stubTool) Name() string           { return s.name }
func (s *stubTool) Description() string    { return s.desc }
func (s *stubTool) Schema() map[string]any { return s.schema }
func (s *stubTool) Execute(ctx context.Context, args map[string]any, cfg *config.ServerConfig) (any, *mcperr.ToolError) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, mcperr.New(mcperr.Timeout, "interrupted")
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func testConfig(t *testing.T) *config.ServerConfig {
	t.Helper()
	return &config.ServerConfig{
		RootDir:        t.TempDir(),
		LogLevel:       "warn",
		RequestTimeout: 2 * time.Second,
	}
}

func setupTestRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	r := tool.NewRegistry()
	_ = r.Register(&stubTool{
		name:   "test_tool",
		desc:   "A test tool",
		schema: map[string]any{"type": "object", "properties": map[string]any{}},
		result: "test result",
	})
	_ = r.Register(&stubTool{
		name:   "search_nodes",
		desc:   "Search nodes",
		schema: map[string]any{"type": "object", "properties": map[string]any{"q": map[string]any{"type": "string"}}},
		result: "found 5 nodes",
	})
	return r
}

func sendAndReceive(t *testing.T, registry *tool.Registry, cfg *config.ServerConfig, requests ...string) []Response {
	t.Helper()
	input := strings.Join(requests, "\n") + "\n"
	reader := strings.NewReader(input)
	var output bytes.Buffer

	server := NewServerWithIO(registry, cfg, nil, reader, &output)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Run(ctx); err != nil {
		t.Fatalf("server.Run error: %v", err)
	}
	// Requests are dispatched on their own goroutine; give them a beat to
	// finish writing before reading the buffer back.
	time.Sleep(50 * time.Millisecond)

	var responses []Response
	for _, line := range strings.Split(strings.TrimSpace(output.String()), "\n") {
		if line == "" {
			continue
		}
		var resp Response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("failed to parse response: %v\nline: %s", err, line)
		}
		responses = append(responses, resp)
	}
	return responses
}

func responseByID(t *testing.T, responses []Response, id string) Response {
	t.Helper()
	for _, r := range responses {
		if string(r.ID) == id {
			return r
		}
	}
	t.Fatalf("no response with id %s among %d responses", id, len(responses))
	return Response{}
}

func TestInitialize(t *testing.T) {
	cfg := testConfig(t)
	responses := sendAndReceive(t, setupTestRegistry(t), cfg,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
	)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}

	resp := responses[0]
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}

	resultBytes, _ := json.Marshal(resp.Result)
	var result initializeResult
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if result.ProtocolVersion != protocolVersion {
		t.Errorf("expected protocol version %q, got %q", protocolVersion, result.ProtocolVersion)
	}
	if result.ServerInfo.Name != serverName {
		t.Errorf("expected server name %q, got %q", serverName, result.ServerInfo.Name)
	}
}

func TestInitializedNotification(t *testing.T) {
	cfg := testConfig(t)
	responses := sendAndReceive(t, setupTestRegistry(t), cfg,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
	)
	if len(responses) != 0 {
		t.Errorf("expected no responses for a notification, got %d", len(responses))
	}
}

func TestToolsList(t *testing.T) {
	cfg := testConfig(t)
	responses := sendAndReceive(t, setupTestRegistry(t), cfg,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}`,
	)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}

	resp := responses[0]
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}

	resultBytes, _ := json.Marshal(resp.Result)
	var result map[string]any
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}

	tools, ok := result["tools"].([]any)
	if !ok {
		t.Fatalf("expected tools array, got %T", result["tools"])
	}
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}

	tool0, _ := tools[0].(map[string]any)
	if tool0["name"] != "test_tool" {
		t.Errorf("expected first tool 'test_tool', got %v", tool0["name"])
	}
	if tool0["inputSchema"] == nil {
		t.Error("expected inputSchema to be present")
	}
}

func TestToolsCall(t *testing.T) {
	cfg := testConfig(t)
	responses := sendAndReceive(t, setupTestRegistry(t), cfg,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"test_tool","arguments":{}}}`,
	)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}

	resp := responses[0]
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}

	resultBytes, _ := json.Marshal(resp.Result)
	var result toolCallResult
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if result.IsError {
		t.Error("expected isError=false")
	}
	if len(result.Content) != 1 || result.Content[0].Text != "test result" {
		t.Errorf("expected content 'test result', got %+v", result.Content)
	}
}

func TestToolsCallUnknown(t *testing.T) {
	cfg := testConfig(t)
	responses := sendAndReceive(t, setupTestRegistry(t), cfg,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"nonexistent","arguments":{}}}`,
	)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}

	resp := responses[0]
	if resp.Error == nil {
		t.Fatal("expected a JSON-RPC error for an unknown tool")
	}
	if resp.Error.Code != CodeMethodNotFound {
		t.Errorf("expected code %d, got %d", CodeMethodNotFound, resp.Error.Code)
	}
}

func TestToolsCallToolError(t *testing.T) {
	cfg := testConfig(t)
	registry := tool.NewRegistry()
	_ = registry.Register(&stubTool{
		name: "failing_tool",
		err:  mcperr.New(mcperr.Filesystem, "file not found: missing.go"),
	})
	responses := sendAndReceive(t, registry, cfg,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"failing_tool","arguments":{}}}`,
	)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}

	resp := responses[0]
	if resp.Error == nil {
		t.Fatal("expected a tool error")
	}
	if resp.Error.Code != CodeToolError {
		t.Errorf("expected code %d, got %d", CodeToolError, resp.Error.Code)
	}
	if !strings.Contains(resp.Error.Message, "file not found") {
		t.Errorf("expected message to carry the underlying reason, got %q", resp.Error.Message)
	}
}

func TestToolsCallTimeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.RequestTimeout = 30 * time.Millisecond
	registry := tool.NewRegistry()
	_ = registry.Register(&stubTool{name: "slow_tool", result: "too late", delay: time.Second})

	responses := sendAndReceive(t, registry, cfg,
		`{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"slow_tool","arguments":{}}}`,
	)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}

	resp := responses[0]
	if resp.Error == nil {
		t.Fatal("expected a timeout error")
	}
	if resp.Error.Code != CodeTimeout {
		t.Errorf("expected code %d, got %d", CodeTimeout, resp.Error.Code)
	}
}

func TestUnknownMethod(t *testing.T) {
	cfg := testConfig(t)
	responses := sendAndReceive(t, setupTestRegistry(t), cfg,
		`{"jsonrpc":"2.0","id":7,"method":"unknown/method","params":{}}`,
	)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if responses[0].Error == nil || responses[0].Error.Code != CodeMethodNotFound {
		t.Fatalf("expected code %d, got %+v", CodeMethodNotFound, responses[0].Error)
	}
}

func TestInvalidJSON(t *testing.T) {
	cfg := testConfig(t)
	responses := sendAndReceive(t, setupTestRegistry(t), cfg,
		`not valid json`,
		`{"jsonrpc":"2.0","id":8,"method":"initialize","params":{}}`,
	)
	// A malformed line is logged and skipped, not answered; only the
	// well-formed request after it produces a response.
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if responses[0].Error != nil {
		t.Fatalf("unexpected error: %v", responses[0].Error)
	}
}

func TestMultipleRequestsPreserveIDCorrelation(t *testing.T) {
	cfg := testConfig(t)
	responses := sendAndReceive(t, setupTestRegistry(t), cfg,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"test_tool","arguments":{}}}`,
	)
	if len(responses) != 3 {
		t.Fatalf("expected 3 responses (notification gets none), got %d", len(responses))
	}
	if responseByID(t, responses, "3").Error != nil {
		t.Error("expected the tools/call response to carry id 3 with no error")
	}
}

func TestToolsCallWithArguments(t *testing.T) {
	cfg := testConfig(t)
	responses := sendAndReceive(t, setupTestRegistry(t), cfg,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search_nodes","arguments":{"q":"test"}}}`,
	)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}

	resultBytes, _ := json.Marshal(responses[0].Result)
	var result toolCallResult
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if result.Content[0].Text != "found 5 nodes" {
		t.Errorf("expected 'found 5 nodes', got %q", result.Content[0].Text)
	}
}

func TestPromptsListIsEmpty(t *testing.T) {
	cfg := testConfig(t)
	responses := sendAndReceive(t, setupTestRegistry(t), cfg,
		`{"jsonrpc":"2.0","id":1,"method":"prompts/list","params":{}}`,
	)
	resultBytes, _ := json.Marshal(responses[0].Result)
	var result map[string]any
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	prompts, _ := result["prompts"].([]any)
	if len(prompts) != 0 {
		t.Errorf("expected no prompts, got %d", len(prompts))
	}
}

func TestResourcesListAndRead(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.RootDir, "hello.txt"), []byte("hello world"), 0o644); err != nil {
		t.Fatalf("fixture setup: %v", err)
	}

	listResp := sendAndReceive(t, setupTestRegistry(t), cfg,
		`{"jsonrpc":"2.0","id":1,"method":"resources/list","params":{}}`,
	)
	resultBytes, _ := json.Marshal(listResp[0].Result)
	var listResult struct {
		Resources []resourceInfo `json:"resources"`
	}
	if err := json.Unmarshal(resultBytes, &listResult); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if len(listResult.Resources) != 1 {
		t.Fatalf("expected 1 resource, got %d", len(listResult.Resources))
	}

	uri := listResult.Resources[0].URI
	readReq := `{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"` + uri + `"}}`
	readResp := sendAndReceive(t, setupTestRegistry(t), cfg, readReq)
	resultBytes, _ = json.Marshal(readResp[0].Result)
	var readResult struct {
		Contents []resourceContent `json:"contents"`
	}
	if err := json.Unmarshal(resultBytes, &readResult); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if readResult.Contents[0].Text != "hello world" {
		t.Errorf("expected 'hello world', got %q", readResult.Contents[0].Text)
	}
}
