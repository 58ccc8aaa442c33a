package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// notificationRingCapacity bounds how many unread notifications per method
// a client retains; older ones are dropped rather than broadcast to every
// caller.
const notificationRingCapacity = 64

type replyOrError struct {
	result json.RawMessage
	err    *wireError
}

// Client owns one long-lived language-server child process, speaking
// Content-Length-framed JSON-RPC over its stdio. It is a passive peer:
// server-to-client requests are answered with "not implemented" rather
// than serviced.
type Client struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	nextID int64

	writeMu sync.Mutex

	mu          sync.Mutex
	pending     map[int64]chan replyOrError
	ringBuffers map[string][]json.RawMessage
	waiters     map[string][]chan json.RawMessage

	dead     atomic.Bool
	done     chan struct{}
	closeOne sync.Once

	Language string
	Root     string

	// SessionID identifies this client instance in logs; it has no protocol
	// meaning and is regenerated on every respawn.
	SessionID string
}

// StartClient spawns command with args in workDir, wires up its stdio, and
// performs the LSP initialize/initialized handshake before returning. The
// returned Client does not accept work until the handshake succeeds.
func StartClient(ctx context.Context, command string, args []string, workDir string, env []string, language, root string) (*Client, error) {
	if _, err := exec.LookPath(command); err != nil {
		return nil, fmt.Errorf("language server command %q not found on PATH: %w", command, err)
	}

	cmd := exec.Command(command, args...)
	cmd.Dir = workDir
	if env != nil {
		cmd.Env = env
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	// The server's stderr carries its own diagnostic log, not part of the
	// LSP protocol; drain it so the child never blocks on a full pipe.
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return nil, fmt.Errorf("start %s: %w", command, err)
	}

	c := &Client{
		cmd:         cmd,
		stdin:       stdin,
		stdout:      stdout,
		pending:     make(map[int64]chan replyOrError),
		ringBuffers: make(map[string][]json.RawMessage),
		waiters:     make(map[string][]chan json.RawMessage),
		done:        make(chan struct{}),
		Language:    language,
		Root:        root,
		SessionID:   uuid.NewString(),
	}

	go c.drainStderr(stderr)
	go c.readLoop()

	if err := c.handshake(ctx, root); err != nil {
		c.ForceKill()
		return nil, fmt.Errorf("initialize %s: %w", command, err)
	}

	log.Info().Str("session", c.SessionID).Str("language", language).Str("root", root).Msg("lsp session established")
	return c, nil
}

func (c *Client) handshake(ctx context.Context, root string) error {
	params := InitializeParams{
		ProcessID: nil,
		RootURI:   "file://" + root,
		Capabilities: ClientCapabilities{
			TextDocument: TextDocumentClientCapabilities{
				Synchronization:    SyncCapabilities{DynamicRegistration: false},
				PublishDiagnostics: PublishDiagnosticsCapabilities{},
			},
			Workspace: WorkspaceClientCapabilities{WorkspaceFolders: true},
		},
		WorkspaceFolders: []WorkspaceFolder{{URI: "file://" + root, Name: root}},
	}
	if _, err := c.Request(ctx, "initialize", params); err != nil {
		return err
	}
	return c.Notify("initialized", map[string]any{})
}

// Alive reports whether the client is still usable. Once false, it is
// permanently unusable; the manager must spawn a replacement.
func (c *Client) Alive() bool {
	return !c.dead.Load()
}

func (c *Client) markDead() {
	c.dead.Store(true)
	c.closeOne.Do(func() { close(c.done) })
}

// Request allocates a fresh id, installs a one-shot reply slot, sends the
// request, and awaits the reply or ctx's deadline. The caller's context
// governs the timeout; there is no separate per-request timeout here.
func (c *Client) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if !c.Alive() {
		return nil, fmt.Errorf("lsp client for %s is no longer alive", c.Language)
	}

	id := atomic.AddInt64(&c.nextID, 1)
	ch := make(chan replyOrError, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.send(wireRequest{JSONRPC: "2.0", ID: NewIntID(id), Method: method, Params: params}); err != nil {
		return nil, err
	}

	select {
	case reply := <-ch:
		if reply.err != nil {
			return nil, fmt.Errorf("lsp error %d: %s", reply.err.Code, reply.err.Message)
		}
		return reply.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, fmt.Errorf("lsp client for %s closed mid-request", c.Language)
	}
}

// Notify sends a notification without awaiting any reply.
func (c *Client) Notify(method string, params any) error {
	if !c.Alive() {
		return fmt.Errorf("lsp client for %s is no longer alive", c.Language)
	}
	return c.send(wireNotification{JSONRPC: "2.0", Method: method, Params: params})
}

// WaitForNotification returns the next notification matching method, or
// (nil, false) if none arrives before timeout. Used by diagnostics: a
// timeout here means "no diagnostics", not failure.
func (c *Client) WaitForNotification(ctx context.Context, method string, timeout time.Duration) (json.RawMessage, bool) {
	c.mu.Lock()
	if ring := c.ringBuffers[method]; len(ring) > 0 {
		params := ring[len(ring)-1]
		c.ringBuffers[method] = nil
		c.mu.Unlock()
		return params, true
	}
	ch := make(chan json.RawMessage, 1)
	c.waiters[method] = append(c.waiters[method], ch)
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case params := <-ch:
		return params, true
	case <-timer.C:
		return nil, false
	case <-ctx.Done():
		return nil, false
	case <-c.done:
		return nil, false
	}
}

// send frames v with a Content-Length header and writes it atomically with
// respect to other writers, preserving submission order to the server.
func (c *Client) send(v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal lsp message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
	if _, err := c.stdin.Write([]byte(header)); err != nil {
		c.markDead()
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := c.stdin.Write(body); err != nil {
		c.markDead()
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// readLoop is the single reader task: it parses Content-Length-framed
// messages and classifies each as a response, a notification, or a
// server-to-client request (which this passive peer refuses).
func (c *Client) readLoop() {
	defer c.markDead()

	reader := bufio.NewReader(c.stdout)
	for {
		length, err := readContentLength(reader)
		if err != nil {
			if err != io.EOF {
				log.Debug().Err(err).Str("language", c.Language).Msg("lsp read loop terminated")
			}
			return
		}

		body := make([]byte, length)
		if _, err := io.ReadFull(reader, body); err != nil {
			log.Debug().Err(err).Str("language", c.Language).Msg("lsp frame body truncated")
			return
		}

		var msg wireMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			log.Debug().Err(err).Str("language", c.Language).Msg("malformed lsp frame, dropping")
			continue
		}

		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg wireMessage) {
	switch {
	case msg.ID != nil && msg.Method == "" && (msg.Result != nil || msg.Error != nil):
		c.mu.Lock()
		ch, ok := c.pending[msg.ID.Key()]
		c.mu.Unlock()
		if !ok {
			log.Debug().Str("language", c.Language).Msg("lsp reply for unknown or abandoned request, dropping")
			return
		}
		ch <- replyOrError{result: msg.Result, err: msg.Error}

	case msg.ID != nil && msg.Method != "":
		c.replyNotImplemented(*msg.ID)

	case msg.Method != "":
		c.pushNotification(msg.Method, msg.Params)
	}
}

// replyNotImplemented answers a server-to-client request; this client is a
// passive peer and services none.
func (c *Client) replyNotImplemented(id RequestID) {
	_ = c.send(struct {
		JSONRPC string     `json:"jsonrpc"`
		ID      RequestID  `json:"id"`
		Error   *wireError `json:"error"`
	}{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &wireError{Code: -32601, Message: "not implemented"},
	})
}

func (c *Client) pushNotification(method string, params json.RawMessage) {
	c.mu.Lock()
	ring := append(c.ringBuffers[method], params)
	if len(ring) > notificationRingCapacity {
		ring = ring[len(ring)-notificationRingCapacity:]
	}
	c.ringBuffers[method] = ring

	waiters := c.waiters[method]
	c.waiters[method] = nil
	c.mu.Unlock()

	for _, w := range waiters {
		w <- params
	}
}

func (c *Client) drainStderr(r io.ReadCloser) {
	defer r.Close()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Trace().Str("language", c.Language).Str("source", "child-stderr").Msg(scanner.Text())
	}
}

// Shutdown sends the polite LSP shutdown/exit sequence, waits briefly for
// the child to exit on its own, then force-kills it.
func (c *Client) Shutdown(ctx context.Context, shutdownWait, exitFlush time.Duration) {
	if c.Alive() {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownWait)
		_, _ = c.Request(shutdownCtx, "shutdown", nil)
		cancel()
		_ = c.Notify("exit", nil)
		time.Sleep(exitFlush)
	}
	c.ForceKill()
}

// ForceKill terminates the child process immediately without the polite
// sequence. Used for clients that already failed or were explicitly
// evicted.
func (c *Client) ForceKill() {
	c.markDead()
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		_, _ = c.cmd.Process.Wait()
	}
	_ = c.stdin.Close()
	_ = c.stdout.Close()
}

// readContentLength consumes LSP headers up to the blank line and returns
// the declared body length.
func readContentLength(r *bufio.Reader) (int, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return 0, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			value := strings.TrimSpace(line[len("content-length:"):])
			n, err := strconv.Atoi(value)
			if err != nil {
				return 0, fmt.Errorf("invalid Content-Length: %s", value)
			}
			length = n
		}
	}
	if length < 0 {
		return 0, fmt.Errorf("missing Content-Length header")
	}
	return length, nil
}
