package lsp

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadContentLength(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Content-Length: 12\r\n\r\n{\"ok\": true}"))
	n, err := readContentLength(r)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	body := make([]byte, n)
	_, err = io.ReadFull(r, body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok": true}`, string(body))
}

func TestReadContentLength_MissingHeader(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\r\n{}"))
	_, err := readContentLength(r)
	require.Error(t, err)
}

// newTestClient builds a Client with a drained pipe in place of a real
// child process's stdin, so Notify/send succeed without spawning anything.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	pr, pw := io.Pipe()
	go func() { _, _ = io.Copy(io.Discard, pr) }()

	return &Client{
		stdin:       pw,
		stdout:      io.NopCloser(strings.NewReader("")),
		pending:     make(map[int64]chan replyOrError),
		ringBuffers: make(map[string][]json.RawMessage),
		waiters:     make(map[string][]chan json.RawMessage),
		done:        make(chan struct{}),
		Language:    "go",
		Root:        "/proj",
	}
}

func TestClient_PushAndWaitForNotification(t *testing.T) {
	c := newTestClient(t)

	go func() {
		time.Sleep(10 * time.Millisecond)
		c.pushNotification("textDocument/publishDiagnostics", json.RawMessage(`{"uri":"file:///a.go"}`))
	}()

	params, ok := c.WaitForNotification(t.Context(), "textDocument/publishDiagnostics", time.Second)
	require.True(t, ok)
	assert.JSONEq(t, `{"uri":"file:///a.go"}`, string(params))
}

func TestClient_WaitForNotification_Timeout(t *testing.T) {
	c := newTestClient(t)
	_, ok := c.WaitForNotification(t.Context(), "textDocument/publishDiagnostics", 20*time.Millisecond)
	assert.False(t, ok)
}

func TestClient_DispatchDeliversResponse(t *testing.T) {
	c := newTestClient(t)

	ch := make(chan replyOrError, 1)
	c.mu.Lock()
	c.pending[1] = ch
	c.mu.Unlock()

	id := NewIntID(1)
	c.dispatch(wireMessage{ID: &id, Result: json.RawMessage(`{"ok":true}`)})

	select {
	case reply := <-ch:
		assert.JSONEq(t, `{"ok":true}`, string(reply.result))
	case <-time.After(time.Second):
		t.Fatal("expected reply to be delivered")
	}
}

func TestClient_ReplyNotImplementedForServerRequest(t *testing.T) {
	c := newTestClient(t)
	id := NewIntID(99)
	c.dispatch(wireMessage{ID: &id, Method: "workspace/configuration"})
	// No assertion beyond "it doesn't panic or block": a passive peer
	// answers server-initiated requests without tracking them further.
}

func TestClient_Alive(t *testing.T) {
	c := newTestClient(t)
	assert.True(t, c.Alive())
	c.markDead()
	assert.False(t, c.Alive())
}
