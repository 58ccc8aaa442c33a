// Package cli implements the command-line interface for the codemcp server.
package cli

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "codemcp",
	Short: "codemcp - an MCP stdio server for code-assistance agents",
	Long: `codemcp is an MCP (Model Context Protocol) server for code-assistance
agents. It accepts JSON-RPC 2.0 requests over standard input, dispatches
them to a registry of tools (file I/O, shell execution, LSP-backed
semantic code queries), and writes JSON responses to standard output.

Commands:
  mcp serve    Start the MCP server over stdio
  version      Print version information
  completion   Generate shell completion scripts`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
}
