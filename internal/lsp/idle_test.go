package lsp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIdleMonitor_MarkAndSweepEvictsExpired(t *testing.T) {
	m := NewManager(DefaultServerSpecs, nil)
	c := newTestClient(t)

	key := SessionKey{Root: "/proj", Language: "go"}
	m.mu.Lock()
	m.clients[key] = c
	m.mu.Unlock()

	m.idle.MarkUsed(key)
	m.idle.mu.Lock()
	m.idle.lastUsed[key] = time.Now().Add(-time.Hour)
	m.idle.mu.Unlock()

	m.idle.sweep(time.Minute)

	m.mu.RLock()
	_, stillPresent := m.clients[key]
	m.mu.RUnlock()
	assert.False(t, stillPresent)
	assert.False(t, c.Alive())
}

func TestIdleMonitor_SweepKeepsRecentlyUsed(t *testing.T) {
	m := NewManager(DefaultServerSpecs, nil)
	c := newTestClient(t)

	key := SessionKey{Root: "/proj", Language: "go"}
	m.mu.Lock()
	m.clients[key] = c
	m.mu.Unlock()
	m.idle.MarkUsed(key)

	m.idle.sweep(time.Minute)

	m.mu.RLock()
	_, stillPresent := m.clients[key]
	m.mu.RUnlock()
	assert.True(t, stillPresent)
}

func TestIdleMonitor_RemoveKey(t *testing.T) {
	m := NewManager(DefaultServerSpecs, nil)
	key := SessionKey{Root: "/proj", Language: "go"}
	m.idle.MarkUsed(key)
	m.idle.RemoveKey(key)

	m.idle.mu.Lock()
	_, present := m.idle.lastUsed[key]
	m.idle.mu.Unlock()
	assert.False(t, present)
}
