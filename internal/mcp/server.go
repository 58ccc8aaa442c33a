// Package mcp implements the MCP stdio dispatcher: a JSON-RPC 2.0 server
// that reads line-delimited requests from stdin, dispatches them to a tool
// registry, and writes line-delimited responses to stdout. All log and
// diagnostic output goes to stderr so stdout remains a pure protocol
// channel.
package mcp

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/tool"
)

// Server owns the transport and dispatcher and drives the read loop.
type Server struct {
	transport  *Transport
	dispatcher *Dispatcher
}

// NewServer creates an MCP server that reads from stdin and writes to
// stdout.
func NewServer(registry *tool.Registry, cfg *config.ServerConfig, lspMgr lspWarmer) *Server {
	return NewServerWithIO(registry, cfg, lspMgr, os.Stdin, os.Stdout)
}

// NewServerWithIO creates an MCP server with custom I/O, for testing.
func NewServerWithIO(registry *tool.Registry, cfg *config.ServerConfig, lspMgr lspWarmer, reader io.Reader, writer io.Writer) *Server {
	return &Server{
		transport:  NewTransport(reader, writer),
		dispatcher: NewDispatcher(registry, cfg, lspMgr),
	}
}

// Run reads JSON-RPC requests line-by-line and dispatches each on its own
// goroutine, so a slow tool never stalls the read loop. Responses may
// therefore be written out of request arrival order; each response's id
// preserves correlation. Returns nil on clean EOF.
func (s *Server) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line, ok := s.transport.ReadLine()
		if !ok {
			return s.transport.Err()
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			log.Warn().Err(err).Msg("skipping malformed JSON-RPC line")
			continue
		}

		go s.handleAndReply(ctx, &req)
	}
}

func (s *Server) handleAndReply(ctx context.Context, req *Request) {
	resp := s.dispatcher.Handle(ctx, req)
	if resp == nil {
		return
	}
	if err := s.transport.Write(resp); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
