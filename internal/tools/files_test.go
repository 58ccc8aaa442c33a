package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/mcperr"
)

func testCfg(t *testing.T) *config.ServerConfig {
	t.Helper()
	return &config.ServerConfig{RootDir: t.TempDir()}
}

func TestReadFileTool(t *testing.T) {
	cfg := testCfg(t)
	if err := os.WriteFile(filepath.Join(cfg.RootDir, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	result, toolErr := NewReadFileTool().Execute(context.Background(), map[string]any{"path": "a.txt"}, cfg)
	if toolErr != nil {
		t.Fatalf("unexpected error: %v", toolErr)
	}
	if result != "hello" {
		t.Errorf("expected 'hello', got %v", result)
	}
}

func TestReadFileTool_RejectsTraversal(t *testing.T) {
	cfg := testCfg(t)
	_, toolErr := NewReadFileTool().Execute(context.Background(), map[string]any{"path": "../../etc/passwd"}, cfg)
	if toolErr == nil {
		t.Fatal("expected an error for a path traversal attempt")
	}
	if toolErr.Category() != mcperr.Filesystem {
		t.Errorf("expected Filesystem category, got %s", toolErr.Category())
	}
}

func TestReadFileTool_MissingPath(t *testing.T) {
	cfg := testCfg(t)
	_, toolErr := NewReadFileTool().Execute(context.Background(), map[string]any{}, cfg)
	if toolErr == nil || toolErr.Category() != mcperr.Protocol {
		t.Fatalf("expected a Protocol category error, got %v", toolErr)
	}
}

func TestWriteFileTool(t *testing.T) {
	cfg := testCfg(t)
	_, toolErr := NewWriteFileTool().Execute(context.Background(), map[string]any{
		"path": "nested/b.txt", "content": "world",
	}, cfg)
	if toolErr != nil {
		t.Fatalf("unexpected error: %v", toolErr)
	}

	data, err := os.ReadFile(filepath.Join(cfg.RootDir, "nested", "b.txt"))
	if err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
	if string(data) != "world" {
		t.Errorf("expected 'world', got %q", data)
	}
}

func TestWriteFileTool_RejectsDeniedExtension(t *testing.T) {
	cfg := testCfg(t)
	_, toolErr := NewWriteFileTool().Execute(context.Background(), map[string]any{
		"path": "bad.exe", "content": "x",
	}, cfg)
	if toolErr == nil || toolErr.Category() != mcperr.Filesystem {
		t.Fatalf("expected Filesystem category error for denied extension, got %v", toolErr)
	}
}

func TestListFilesTool(t *testing.T) {
	cfg := testCfg(t)
	os.MkdirAll(filepath.Join(cfg.RootDir, "sub"), 0o755)
	os.WriteFile(filepath.Join(cfg.RootDir, "sub", "c.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(cfg.RootDir, "top.txt"), []byte("y"), 0o644)

	result, toolErr := NewListFilesTool().Execute(context.Background(), map[string]any{}, cfg)
	if toolErr != nil {
		t.Fatalf("unexpected error: %v", toolErr)
	}
	entries, ok := result.([]string)
	if !ok {
		t.Fatalf("expected []string, got %T", result)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %v", entries)
	}
}

func TestDeleteFileTool(t *testing.T) {
	cfg := testCfg(t)
	target := filepath.Join(cfg.RootDir, "d.txt")
	os.WriteFile(target, []byte("x"), 0o644)

	_, toolErr := NewDeleteFileTool().Execute(context.Background(), map[string]any{"path": "d.txt"}, cfg)
	if toolErr != nil {
		t.Fatalf("unexpected error: %v", toolErr)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("expected file to be removed")
	}
}

func TestDeleteFileTool_RejectsDirectory(t *testing.T) {
	cfg := testCfg(t)
	os.MkdirAll(filepath.Join(cfg.RootDir, "adir"), 0o755)
	_, toolErr := NewDeleteFileTool().Execute(context.Background(), map[string]any{"path": "adir"}, cfg)
	if toolErr == nil {
		t.Fatal("expected an error when deleting a directory")
	}
}

func TestShellTool(t *testing.T) {
	cfg := testCfg(t)
	result, toolErr := NewShellTool().Execute(context.Background(), map[string]any{"command": "echo hi"}, cfg)
	if toolErr != nil {
		t.Fatalf("unexpected error: %v", toolErr)
	}
	out, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("expected map result, got %T", result)
	}
	if out["exit_code"] != 0 {
		t.Errorf("expected exit_code 0, got %v", out["exit_code"])
	}
}

func TestShellTool_NonZeroExitIsNotToolError(t *testing.T) {
	cfg := testCfg(t)
	result, toolErr := NewShellTool().Execute(context.Background(), map[string]any{"command": "exit 3"}, cfg)
	if toolErr != nil {
		t.Fatalf("a non-zero exit must not be a ToolError, got: %v", toolErr)
	}
	out := result.(map[string]any)
	if out["exit_code"] != 3 {
		t.Errorf("expected exit_code 3, got %v", out["exit_code"])
	}
}

func TestRegister_WithoutLSPManager(t *testing.T) {
	registry, err := Register(nil, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	infos := registry.List()
	if len(infos) != 5 {
		t.Fatalf("expected 5 plain tools with no LSP manager, got %d", len(infos))
	}
}
