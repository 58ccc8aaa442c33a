package lsp

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/empathic-dev/codemcp/internal/watcher"
)

// staleWatchExcludes mirrors the directory names every LSP server in
// DefaultServerSpecs is configured to ignore during its own indexing.
var staleWatchExcludes = []string{".git", "node_modules", "vendor", "target", "dist", "build"}

// watchForExternalEdits watches key.Root for file writes and removals (from
// an external editor, a formatter run via the shell tool, a build step, or
// this server's own write_file tool alike) and marks the matching open
// document closed so the next EnsureDocumentOpen re-opens it fresh instead
// of diffing against a cache that silently diverged from disk.
func (m *Manager) watchForExternalEdits(ctx context.Context, key SessionKey) {
	w, err := watcher.NewWatcher(watcher.WatcherConfig{
		Paths:        []string{key.Root},
		ExcludeNames: staleWatchExcludes,
	})
	if err != nil {
		log.Debug().Err(err).Str("root", key.Root).Msg("failed to start staleness watcher")
		return
	}

	events, err := w.Start(ctx)
	if err != nil {
		log.Debug().Err(err).Str("root", key.Root).Msg("failed to start staleness watcher")
		return
	}

	go func() {
		defer w.Close()
		docs := m.Documents(key.Root, key.Language)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				if evt.Op != watcher.Write && evt.Op != watcher.Remove {
					continue
				}
				uri := "file://" + evt.Path
				docs.MarkClosed(uri)
			}
		}
	}()
}
