package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/lsp"
	"github.com/empathic-dev/codemcp/internal/mcp"
	"github.com/empathic-dev/codemcp/internal/tools"
)

func newMCPCmd() *cobra.Command {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  `Commands for running the MCP (Model Context Protocol) server.`,
	}

	mcpCmd.AddCommand(newMCPServeCmd())
	return mcpCmd
}

func newMCPServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Long: `Start a JSON-RPC 2.0 MCP server over stdin/stdout.

The server exposes file I/O, shell execution, and LSP-backed code
intelligence tools to MCP clients. It reads requests from stdin and
writes responses to stdout, one JSON object per line; all logs and
diagnostics go to stderr.

Configuration is read from the environment: ROOT_DIR (required), ADD_PATH,
LOGLEVEL, MCP_REQUEST_TIMEOUT, LSP_IDLE_TIMEOUT, LSP_CHECK_INTERVAL,
LSP_ENABLE_IDLE_MONITOR. CODEMCP_CONFIG points at an optional YAML file
of defaults for the same keys, and LSP_SERVERS_FILE points at an optional
YAML file overriding or adding language-server launch commands.`,
		SilenceUsage: true,
		RunE:         runMCPServe,
	}
	return cmd
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	log.Logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	specs, err := lsp.LoadServerSpecs()
	if err != nil {
		return fmt.Errorf("load language server specs: %w", err)
	}

	manager := lsp.NewManager(specs, cfg.ChildEnv())
	cfg.AttachLSPManager(manager)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager.StartIdleMonitor(ctx, cfg.CheckInterval, cfg.IdleTimeout, cfg.IdleMonitorEnabled)

	registry, err := tools.Register(manager, cfg.RootDir)
	if err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	server := mcp.NewServer(registry, cfg, manager)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	log.Info().Str("config", cfg.Summary()).Msg("codemcp server starting")

	runErr := server.Run(ctx)
	manager.Shutdown()
	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("MCP server error: %w", runErr)
	}
	return nil
}
