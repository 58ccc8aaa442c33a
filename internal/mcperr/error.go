// Package mcperr defines the tagged tool-error taxonomy shared by every tool
// and the dispatcher that surfaces it over JSON-RPC.
package mcperr

import (
	"errors"
	"fmt"
)

// Category tags a ToolError with the kind of failure it represents so the
// dispatcher can attach category-specific remediation text without
// inspecting error strings.
type Category int

const (
	// Filesystem covers missing files, permission denial, and invalid paths.
	Filesystem Category = iota
	// Execution covers a missing child command or a shell-out that could not
	// be started. A non-zero exit from a user-invoked command is not this
	// category; that is reported in the tool result, not as a ToolError.
	Execution
	// LSP covers an unavailable language server, an unrecognized project, or
	// a failed LSP request.
	LSP
	// Configuration covers a missing or invalid environment variable.
	Configuration
	// Protocol covers a bad tool name, a missing required argument, or a
	// schema mismatch.
	Protocol
	// Timeout covers a request that exceeded its deadline.
	Timeout
	// Other is the fallback for anything uncategorized.
	Other
)

// String returns the human-readable label used in log lines and error text.
func (c Category) String() string {
	switch c {
	case Filesystem:
		return "filesystem"
	case Execution:
		return "execution"
	case LSP:
		return "lsp"
	case Configuration:
		return "configuration"
	case Protocol:
		return "protocol"
	case Timeout:
		return "timeout"
	default:
		return "other"
	}
}

// guidance is the standard remediation block appended to a category's error
// message by the dispatcher.
func (c Category) guidance() string {
	switch c {
	case Filesystem:
		return "check that the path exists, is readable, and is spelled correctly"
	case Execution:
		return "verify the command is on PATH, check its syntax and dependencies"
	case LSP:
		return "ensure the language server is installed and the project has recognizable markers"
	case Configuration:
		return "check the named environment variable"
	case Protocol:
		return "check the tool's input schema"
	case Timeout:
		return "the request exceeded its configured timeout"
	default:
		return "no further guidance available"
	}
}

// ToolError is the error type every Tool returns for a failure. It carries
// a Category so the dispatcher can shape a consistent, category-aware
// JSON-RPC error without parsing message text.
type ToolError struct {
	Cat     Category
	Message string
	Err     error
}

// New creates a ToolError in the given category.
func New(cat Category, message string) *ToolError {
	return &ToolError{Cat: cat, Message: message}
}

// Wrap creates a ToolError in the given category, wrapping an underlying error.
func Wrap(cat Category, message string, err error) *ToolError {
	return &ToolError{Cat: cat, Message: message, Err: err}
}

func (e *ToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Cat, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Cat, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Category returns the error's category.
func (e *ToolError) Category() Category {
	return e.Cat
}

// Recoverable reports whether the caller might succeed on retry. Timeouts
// and LSP failures are transient; filesystem, protocol, and configuration
// errors generally are not.
func (e *ToolError) Recoverable() bool {
	switch e.Cat {
	case Timeout, LSP:
		return true
	default:
		return false
	}
}

// Detailed formats the error with its category label and standard
// remediation text, as surfaced in a -32000 JSON-RPC error message.
func (e *ToolError) Detailed() string {
	return fmt.Sprintf("[%s] %s (%s)", e.Cat, e.Message, e.Cat.guidance())
}

// AsToolError unwraps err looking for a *ToolError and returns it if found.
// If err's chain holds no *ToolError, err is wrapped in the Other category.
// A nil err yields nil.
func AsToolError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	return Wrap(Other, "unexpected error", err)
}
