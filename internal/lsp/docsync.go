package lsp

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// DocumentState mirrors one file's text as last synchronized with the LSP
// server. Versions are strictly increasing; Open is true iff a didOpen has
// been emitted that was not followed by a didClose.
type DocumentState struct {
	Version int
	Text    string
	Open    bool
}

// DocumentStore is the single writer for a client's document states; reads
// happen under the same lock to prevent torn reads between a didChange
// computing a diff and a concurrent tool reading the cached text.
type DocumentStore struct {
	mu    sync.Mutex
	files map[string]*DocumentState
}

// NewDocumentStore creates an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{files: make(map[string]*DocumentState)}
}

// Get returns a copy of the current state for uri, or false if unknown.
func (s *DocumentStore) Get(uri string) (DocumentState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.files[uri]
	if !ok {
		return DocumentState{}, false
	}
	return *st, true
}

// EnsureDocumentOpen reads path from disk and synchronizes the client's
// view of it: emits didOpen with version 0 if the document is unknown or
// was closed, or didChange with a strictly incremented version if the
// on-disk text has diverged from the cached copy. Every LSP tool must call
// this before issuing a position-dependent request.
func EnsureDocumentOpen(ctx context.Context, client *Client, store *DocumentStore, path, uri, languageID string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	text := string(data)

	store.mu.Lock()
	state, known := store.files[uri]
	defer store.mu.Unlock()

	switch {
	case !known || !state.Open:
		if err := client.Notify("textDocument/didOpen", DidOpenTextDocumentParams{
			TextDocument: TextDocumentItem{URI: uri, LanguageID: languageID, Version: 0, Text: text},
		}); err != nil {
			return fmt.Errorf("didOpen %s: %w", uri, err)
		}
		store.files[uri] = &DocumentState{Version: 0, Text: text, Open: true}

	case state.Text != text:
		newVersion := state.Version + 1
		if err := client.Notify("textDocument/didChange", DidChangeTextDocumentParams{
			TextDocument:   VersionedTextDocumentIdentifier{URI: uri, Version: newVersion},
			ContentChanges: []TextDocumentContentChangeEvent{{Text: text}},
		}); err != nil {
			return fmt.Errorf("didChange %s: %w", uri, err)
		}
		state.Version = newVersion
		state.Text = text
	}

	return nil
}

// MarkClosed records that uri has been closed, so a later access re-opens
// it with a fresh didOpen rather than assuming continuity.
func (s *DocumentStore) MarkClosed(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.files[uri]; ok {
		st.Open = false
	}
}
