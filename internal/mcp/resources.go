package mcp

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/empathic-dev/codemcp/internal/mcperr"
)

// skippedDirs are never descended into when enumerating resources.
var skippedDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, ".codemcp": true,
}

func (d *Dispatcher) handleResourcesList(req *Request) *Response {
	var resources []resourceInfo

	root := d.cfg.RootDir
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil // best-effort enumeration; skip unreadable entries
		}
		if entry.IsDir() {
			if path != root && skippedDirs[entry.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		resources = append(resources, resourceInfo{
			URI:      "file://" + path,
			Name:     rel,
			MimeType: inferMimeType(path),
		})
		return nil
	})

	sort.Slice(resources, func(i, j int) bool { return resources[i].Name < resources[j].Name })

	return resultResponse(req.ID, map[string]any{"resources": resources})
}

func (d *Dispatcher) handleResourcesRead(req *Request) *Response {
	var params resourcesReadParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params: "+err.Error())
	}

	path, err := uriToPath(params.URI)
	if err != nil {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid uri: "+err.Error())
	}

	rel, err := filepath.Rel(d.cfg.RootDir, path)
	if err != nil {
		return errorResponse(req.ID, CodeToolError, "[filesystem] uri escapes project root")
	}
	resolved, resolveErr := d.validator.Resolve(rel)
	if resolveErr != nil {
		return errorResponse(req.ID, CodeToolError, mcperr.AsToolError(resolveErr).Detailed())
	}

	info, statErr := os.Stat(resolved)
	if statErr != nil {
		return errorResponse(req.ID, CodeToolError, fmt.Sprintf("[filesystem] %s not found (check existence, permissions, path correctness)", rel))
	}

	if info.IsDir() {
		var lines []string
		_ = filepath.WalkDir(resolved, func(p string, e fs.DirEntry, err error) error {
			if err != nil || e.IsDir() {
				return nil
			}
			r, _ := filepath.Rel(resolved, p)
			lines = append(lines, r)
			return nil
		})
		return resultResponse(req.ID, map[string]any{
			"contents": []resourceContent{{URI: params.URI, MimeType: "text/plain", Text: strings.Join(lines, "\n")}},
		})
	}

	if info.Size() > d.validator.MaxReadBytes() {
		return errorResponse(req.ID, CodeToolError, fmt.Sprintf("[filesystem] %s exceeds the read size cap", rel))
	}

	data, readErr := os.ReadFile(resolved)
	if readErr != nil {
		return errorResponse(req.ID, CodeToolError, fmt.Sprintf("[filesystem] cannot read %s: %v", rel, readErr))
	}

	return resultResponse(req.ID, map[string]any{
		"contents": []resourceContent{{URI: params.URI, MimeType: inferMimeType(resolved), Text: string(data)}},
	})
}

func uriToPath(uri string) (string, error) {
	const prefix = "file://"
	if !strings.HasPrefix(uri, prefix) {
		return "", fmt.Errorf("only file:// URIs are supported: %s", uri)
	}
	return strings.TrimPrefix(uri, prefix), nil
}

func inferMimeType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "text/plain"
}
