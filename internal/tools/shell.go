package tools

import (
	"context"
	"os/exec"

	"github.com/empathic-dev/codemcp/internal/config"
	"github.com/empathic-dev/codemcp/internal/mcperr"
)

// ShellTool runs a command under the project root, using the server's
// dispatch deadline (config.RequestTimeout) as the sole bound. A non-zero
// exit is reported in the tool result, not as a ToolError. The command runs
// through "sh -c", so a command sh cannot find shows up as exit code 127;
// only a failure to start sh itself is an Execution-category error.
type ShellTool struct{}

func NewShellTool() *ShellTool { return &ShellTool{} }

func (t *ShellTool) Name() string { return "shell" }

func (t *ShellTool) Description() string {
	return "Run a shell command with its working directory set to the project root."
}

func (t *ShellTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{"type": "string", "description": "Command to run, e.g. 'go test ./...'."},
		},
		"required": []string{"command"},
	}
}

func (t *ShellTool) Execute(ctx context.Context, args map[string]any, cfg *config.ServerConfig) (any, *mcperr.ToolError) {
	command, toolErr := requiredString(args, "command")
	if toolErr != nil {
		return nil, toolErr
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = cfg.RootDir
	cmd.Env = cfg.ChildEnv()

	output, err := cmd.CombinedOutput()
	exitCode := 0
	if err != nil {
		if ctx.Err() != nil {
			return nil, mcperr.Wrap(mcperr.Timeout, "command exceeded its timeout", ctx.Err())
		}
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, mcperr.Wrap(mcperr.Execution, "failed to run command", err)
		}
		exitCode = exitErr.ExitCode()
	}

	return map[string]any{
		"exit_code": exitCode,
		"output":    string(output),
	}, nil
}
