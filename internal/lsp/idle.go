package lsp

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// IdleMonitor tracks the last-used instant of every live session and
// periodically evicts sessions that have gone unused past the configured
// timeout. Servers explicitly removed or already dead skip the polite
// shutdown sequence.
type IdleMonitor struct {
	manager *Manager

	mu       sync.Mutex
	lastUsed map[SessionKey]time.Time
}

// NewIdleMonitor builds a monitor bound to manager, whose evict method it
// calls on sweep.
func NewIdleMonitor(manager *Manager) *IdleMonitor {
	return &IdleMonitor{manager: manager, lastUsed: make(map[SessionKey]time.Time)}
}

// MarkUsed records key's last use as now. Called on every successful
// GetClient.
func (m *IdleMonitor) MarkUsed(key SessionKey) {
	m.mu.Lock()
	m.lastUsed[key] = time.Now()
	m.mu.Unlock()
	log.Trace().Str("session", key.String()).Msg("lsp session marked used")
}

// RemoveKey drops key's bookkeeping entirely, so later sweeps no longer
// consider it for eviction.
func (m *IdleMonitor) RemoveKey(key SessionKey) {
	m.mu.Lock()
	delete(m.lastUsed, key)
	m.mu.Unlock()
	log.Debug().Str("session", key.String()).Msg("lsp session bookkeeping removed")
}

// Start launches the sweeper goroutine, waking every checkInterval and
// evicting any session whose last use is older than idleTimeout. Stops
// when ctx is cancelled.
func (m *IdleMonitor) Start(ctx context.Context, checkInterval, idleTimeout time.Duration) {
	go func() {
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep(idleTimeout)
			}
		}
	}()
}

func (m *IdleMonitor) sweep(idleTimeout time.Duration) {
	now := time.Now()

	m.mu.Lock()
	var expired []SessionKey
	for key, last := range m.lastUsed {
		if now.Sub(last) > idleTimeout {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		delete(m.lastUsed, key)
	}
	m.mu.Unlock()

	for _, key := range expired {
		log.Debug().Str("session", key.String()).Msg("evicting idle lsp session")
		m.manager.evict(key, false)
	}
}
