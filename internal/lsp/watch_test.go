package lsp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchForExternalEdits_MarksDocumentClosed(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "main.go")
	if err := os.WriteFile(target, []byte("package main\n"), 0644); err != nil {
		t.Fatal(err)
	}
	uri := "file://" + target

	m := NewManager(DefaultServerSpecs, nil)
	key := SessionKey{Root: root, Language: "go"}
	docs := m.Documents(root, "go")
	docs.mu.Lock()
	docs.files[uri] = &DocumentState{Version: 0, Text: "package main\n", Open: true}
	docs.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	m.watchForExternalEdits(ctx, key)

	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(target, []byte("package main\n\nfunc main() {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if state, ok := docs.Get(uri); ok && !state.Open {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("expected the document to be marked closed after an external edit")
}
