// Package lsp implements the session manager: spawning and multiplexing
// long-lived language-server child processes, keeping an in-memory mirror
// of open documents synchronized with them, and reaping idle servers.
package lsp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentShutdowns bounds how many clients perform their polite
// shutdown sequence at once when the server exits with several sessions open.
const maxConcurrentShutdowns = 4

// SessionKey identifies a unique LSP client: one is alive per
// (project root, language) pair at any instant.
type SessionKey struct {
	Root     string
	Language string
}

func (k SessionKey) String() string {
	return k.Root + "#" + k.Language
}

// ServerSpec describes how to launch a language server for one language.
type ServerSpec struct {
	Command string
	Args    []string
	// Markers are the marker file names searched for while walking up from
	// a file path to find the project root (e.g. "go.mod").
	Markers []string
}

// DefaultServerSpecs mirrors the language -> command table every
// LSP-capable editor integration ships, grounded on the same defaults
// loom's validation package uses for its own client pool.
var DefaultServerSpecs = map[string]ServerSpec{
	"go": {
		Command: "gopls",
		Args:    []string{"serve"},
		Markers: []string{"go.mod"},
	},
	"rust": {
		Command: "rust-analyzer",
		Args:    []string{},
		Markers: []string{"Cargo.toml"},
	},
	"typescript": {
		Command: "typescript-language-server",
		Args:    []string{"--stdio"},
		Markers: []string{"package.json", "tsconfig.json"},
	},
	"javascript": {
		Command: "typescript-language-server",
		Args:    []string{"--stdio"},
		Markers: []string{"package.json"},
	},
	"python": {
		Command: "pylsp",
		Args:    []string{},
		Markers: []string{"pyproject.toml", "setup.py"},
	},
}

// Manager owns the pool of live LSP clients, keyed by (project root,
// language). At most one client per key is alive at any instant; concurrent
// callers for the same key collapse onto the one spawn in flight.
type Manager struct {
	specs map[string]ServerSpec
	env   []string

	mu           sync.RWMutex
	clients      map[SessionKey]*Client
	docs         map[SessionKey]*DocumentStore
	watchCancels map[SessionKey]context.CancelFunc

	idle *IdleMonitor

	shutdownWait time.Duration
	exitFlush    time.Duration
}

// NewManager builds a Manager using specs for language -> command lookup and
// env as the base environment every spawned child inherits (already
// adjusted for ADD_PATH by the caller).
func NewManager(specs map[string]ServerSpec, env []string) *Manager {
	if specs == nil {
		specs = DefaultServerSpecs
	}
	m := &Manager{
		specs:        specs,
		env:          env,
		clients:      make(map[SessionKey]*Client),
		docs:         make(map[SessionKey]*DocumentStore),
		watchCancels: make(map[SessionKey]context.CancelFunc),
		shutdownWait: 2 * time.Second,
		exitFlush:    500 * time.Millisecond,
	}
	m.idle = NewIdleMonitor(m)
	return m
}

// StartIdleMonitor launches the background sweeper. No-op if enabled is false.
func (m *Manager) StartIdleMonitor(ctx context.Context, checkInterval, idleTimeout time.Duration, enabled bool) {
	if !enabled {
		return
	}
	m.idle.Start(ctx, checkInterval, idleTimeout)
}

// GetClient resolves the project root containing filePath for the given
// language, then returns the live client for that (root, language) key,
// spawning one if absent. Concurrent callers for the same key that arrive
// while a spawn is in flight wait for and receive that same client rather
// than racing a second spawn.
func (m *Manager) GetClient(ctx context.Context, filePath, language string) (*Client, error) {
	spec, ok := m.specs[language]
	if !ok {
		return nil, fmt.Errorf("no language server configured for %q", language)
	}

	root := findProjectRoot(filePath, spec.Markers)
	if root == "" {
		return nil, fmt.Errorf("not a recognized %s project: no marker found above %s", language, filePath)
	}

	key := SessionKey{Root: root, Language: language}

	m.mu.RLock()
	if c, exists := m.clients[key]; exists && c.Alive() {
		m.mu.RUnlock()
		m.idle.MarkUsed(key)
		return c, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring the write lock: another caller may have
	// already completed the spawn while we waited.
	if c, exists := m.clients[key]; exists && c.Alive() {
		m.idle.MarkUsed(key)
		return c, nil
	}

	log.Debug().Str("root", root).Str("language", language).Msg("spawning lsp server")
	c, err := StartClient(ctx, spec.Command, spec.Args, root, m.env, language, root)
	if err != nil {
		return nil, fmt.Errorf("spawn %s language server: %w", language, err)
	}

	m.clients[key] = c
	m.docs[key] = NewDocumentStore()
	m.idle.MarkUsed(key)
	log.Debug().Str("session", c.SessionID).Str("root", root).Str("language", language).Msg("lsp client registered")

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	m.watchCancels[key] = cancelWatch
	m.watchForExternalEdits(watchCtx, key)

	return c, nil
}

// Documents returns the document-state store for the client's session key,
// creating one if necessary. Tools call this right before
// EnsureDocumentOpen.
func (m *Manager) Documents(root, language string) *DocumentStore {
	key := SessionKey{Root: root, Language: language}
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.docs[key]
	if !ok {
		ds = NewDocumentStore()
		m.docs[key] = ds
	}
	return ds
}

// evict removes a client from the pool, performing the polite shutdown
// sequence unless skipPolite is set (the client already failed).
func (m *Manager) evict(key SessionKey, skipPolite bool) {
	m.mu.Lock()
	c, ok := m.clients[key]
	if ok {
		delete(m.clients, key)
		delete(m.docs, key)
	}
	if cancelWatch, watching := m.watchCancels[key]; watching {
		cancelWatch()
		delete(m.watchCancels, key)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	if skipPolite || !c.Alive() {
		c.ForceKill()
		return
	}
	c.Shutdown(context.Background(), m.shutdownWait, m.exitFlush)
}

// Shutdown performs shutdown-all on server exit: evict every client
// concurrently, each attempting polite shutdown with a bounded timeout
// before force-drop, capped so a large session pool doesn't fork dozens of
// shutdown sequences at once.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	keys := make([]SessionKey, 0, len(m.clients))
	for k := range m.clients {
		keys = append(keys, k)
	}
	m.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(maxConcurrentShutdowns)
	for _, k := range keys {
		k := k
		g.Go(func() error {
			m.evict(k, false)
			return nil
		})
	}
	_ = g.Wait()
}

func findProjectRoot(filePath string, markers []string) string {
	// filePath is conventionally a file, not a directory; only treat it as
	// a directory to search from when it demonstrably is one.
	start := dirOf(filePath)
	if isDir, err := statDir(filePath); err == nil && isDir {
		start = filePath
	}
	return discoverRoot(start, markers)
}
