package lsp

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// langServerFile is the on-disk shape of a language-server override file:
// a map of language name to its launch spec, e.g.
//
//	go:
//	  command: gopls
//	  args: [serve]
//	  markers: [go.mod]
type langServerFile map[string]struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Markers []string `yaml:"markers"`
}

// LoadServerSpecs reads an optional YAML file (pointed to by the
// LSP_SERVERS_FILE environment variable) describing additional or
// overriding language-server launch commands, and merges it over
// DefaultServerSpecs. A language present in the file replaces the built-in
// entry for that language entirely; languages not mentioned keep their
// default. Returns the defaults unmodified if LSP_SERVERS_FILE is unset.
func LoadServerSpecs() (map[string]ServerSpec, error) {
	merged := make(map[string]ServerSpec, len(DefaultServerSpecs))
	for lang, spec := range DefaultServerSpecs {
		merged[lang] = spec
	}

	path := os.Getenv("LSP_SERVERS_FILE")
	if path == "" {
		return merged, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read LSP_SERVERS_FILE: %w", err)
	}

	var file langServerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse LSP_SERVERS_FILE: %w", err)
	}

	for lang, entry := range file {
		if entry.Command == "" {
			return nil, fmt.Errorf("language server entry %q is missing a command", lang)
		}
		merged[lang] = ServerSpec{
			Command: entry.Command,
			Args:    entry.Args,
			Markers: entry.Markers,
		}
	}
	return merged, nil
}
