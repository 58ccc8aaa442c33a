// Package config loads and validates the server's process-wide settings
// from the environment, optionally layered over a YAML config file, the
// only configuration surfaces the core reads.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultLogLevel       = "warn"
	defaultRequestTimeout = 55 * time.Second
	minRequestTimeout     = 1 * time.Second
	maxRequestTimeout     = 300 * time.Second

	defaultIdleTimeout   = 10 * time.Minute
	defaultCheckInterval = 60 * time.Second
	defaultIdleMonitorOn = true
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// LSPManagerHandle is the minimal surface ServerConfig needs from the LSP
// manager; the concrete *lsp.Manager is attached once during bootstrap to
// avoid an import cycle between config and lsp.
type LSPManagerHandle interface {
	Shutdown()
}

// ServerConfig holds the immutable, process-wide settings shared by
// reference across the dispatcher and every tool. It is built once at
// startup and never mutated afterward, except for the one-time attachment
// of the LSP manager handle during bootstrap.
type ServerConfig struct {
	// RootDir is the absolute project root every file-touching tool is
	// confined to.
	RootDir string
	// AddPath lists extra PATH entries prepended for child processes
	// (language servers, shell tools).
	AddPath []string
	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string
	// RequestTimeout bounds every tools/call.
	RequestTimeout time.Duration

	// IdleTimeout and CheckInterval tune the LSP idle monitor.
	IdleTimeout        time.Duration
	CheckInterval      time.Duration
	IdleMonitorEnabled bool

	// LSPManager is attached once by the bootstrap code after the manager
	// is constructed; nil until then.
	LSPManager LSPManagerHandle
}

// newViper builds the viper instance FromEnv reads from: environment
// variables take precedence, an optional CODEMCP_CONFIG YAML file supplies
// defaults beneath them, and each key falls back to its built-in default
// when neither source sets it.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("root_dir", "ROOT_DIR")
	v.BindEnv("add_path", "ADD_PATH")
	v.BindEnv("log_level", "LOGLEVEL")
	v.BindEnv("request_timeout_secs", "MCP_REQUEST_TIMEOUT")
	v.BindEnv("lsp_idle_timeout_secs", "LSP_IDLE_TIMEOUT")
	v.BindEnv("lsp_check_interval_secs", "LSP_CHECK_INTERVAL")
	v.BindEnv("lsp_idle_monitor_enabled", "LSP_ENABLE_IDLE_MONITOR")

	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("request_timeout_secs", int(defaultRequestTimeout.Seconds()))
	v.SetDefault("lsp_idle_timeout_secs", int(defaultIdleTimeout.Seconds()))
	v.SetDefault("lsp_check_interval_secs", int(defaultCheckInterval.Seconds()))
	v.SetDefault("lsp_idle_monitor_enabled", defaultIdleMonitorOn)

	if path := os.Getenv("CODEMCP_CONFIG"); path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}
	return v
}

// FromEnv builds a ServerConfig from the environment (and an optional
// CODEMCP_CONFIG YAML file beneath it), applying the same validation the
// original server enforced: ROOT_DIR is required and must be an existing
// directory, LOGLEVEL must be a recognized level, and MCP_REQUEST_TIMEOUT
// must fall within 1-300 seconds. If a .env file exists in the current
// working directory, it is loaded first without overriding variables
// already present in the environment.
func FromEnv() (*ServerConfig, error) {
	if cwd, err := os.Getwd(); err == nil {
		loadEnvFile(filepath.Join(cwd, ".env"))
	}

	v := newViper()

	rootDirStr := v.GetString("root_dir")
	if rootDirStr == "" {
		return nil, fmt.Errorf("missing required environment variable: ROOT_DIR")
	}

	info, err := os.Stat(rootDirStr)
	if err != nil {
		return nil, fmt.Errorf("ROOT_DIR does not exist: %s", rootDirStr)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("ROOT_DIR is not a directory: %s", rootDirStr)
	}

	rootDir, err := filepath.Abs(rootDirStr)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve ROOT_DIR: %w", err)
	}

	var addPath []string
	for _, p := range strings.Split(v.GetString("add_path"), ":") {
		if p != "" {
			addPath = append(addPath, p)
		}
	}

	logLevel := strings.ToLower(strings.TrimSpace(v.GetString("log_level")))
	if logLevel == "" {
		logLevel = defaultLogLevel
	}
	if !validLogLevels[logLevel] {
		return nil, fmt.Errorf("invalid LOGLEVEL: %s", logLevel)
	}

	requestTimeout := time.Duration(v.GetInt64("request_timeout_secs")) * time.Second
	if requestTimeout < minRequestTimeout || requestTimeout > maxRequestTimeout {
		return nil, fmt.Errorf("MCP_REQUEST_TIMEOUT must be 1-300 seconds, got %s", requestTimeout)
	}

	idleTimeout := time.Duration(v.GetInt64("lsp_idle_timeout_secs")) * time.Second
	checkInterval := time.Duration(v.GetInt64("lsp_check_interval_secs")) * time.Second
	idleMonitorEnabled := v.GetBool("lsp_idle_monitor_enabled")

	cfg := &ServerConfig{
		RootDir:            rootDir,
		AddPath:            addPath,
		LogLevel:           logLevel,
		RequestTimeout:     requestTimeout,
		IdleTimeout:        idleTimeout,
		CheckInterval:      checkInterval,
		IdleMonitorEnabled: idleMonitorEnabled,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the root directory is readable. FromEnv calls it
// before returning the config.
func (c *ServerConfig) Validate() error {
	if _, err := os.ReadDir(c.RootDir); err != nil {
		return fmt.Errorf("root directory not readable: %s: %w", c.RootDir, err)
	}
	return nil
}

// AttachLSPManager records the LSP manager handle once it is constructed.
// This is the single permitted post-construction mutation.
func (c *ServerConfig) AttachLSPManager(m LSPManagerHandle) {
	c.LSPManager = m
}

// Summary formats a one-line, log-friendly description of the configuration
// for the startup banner written to stderr.
func (c *ServerConfig) Summary() string {
	lspState := "disabled"
	if c.LSPManager != nil {
		lspState = "enabled"
	}
	return fmt.Sprintf(
		"root=%s add_paths=%d log=%s timeout=%s lsp=%s",
		c.RootDir, len(c.AddPath), c.LogLevel, c.RequestTimeout, lspState,
	)
}

// ChildEnv returns the environment to use when launching a child process
// (language server or shell tool), with AddPath entries prepended to PATH.
func (c *ServerConfig) ChildEnv() []string {
	env := os.Environ()
	if len(c.AddPath) == 0 {
		return env
	}
	prefix := strings.Join(c.AddPath, string(os.PathListSeparator))
	for i, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			env[i] = "PATH=" + prefix + string(os.PathListSeparator) + strings.TrimPrefix(kv, "PATH=")
			return env
		}
	}
	return append(env, "PATH="+prefix)
}

// DiscoverProjectRoot walks up from startDir looking for a directory
// containing any of the given marker file names (e.g. "go.mod",
// "Cargo.toml", "package.json"). Returns the directory containing the
// first marker found, or "" if none is found before the filesystem root.
func DiscoverProjectRoot(startDir string, markers []string) string {
	dir := startDir
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadEnvFile reads a .env file and sets environment variables from it.
// Lines starting with # and blank lines are skipped. Values already
// present in the environment are not overridden.
func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
