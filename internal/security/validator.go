// Package security validates and resolves user-supplied paths against a
// configured root directory so that no file-touching tool can escape it.
package security

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/empathic-dev/codemcp/internal/mcperr"
)

// defaultMaxReadBytes caps the size of a file resources/read or a read_file
// tool call will return, absent an explicit override.
const defaultMaxReadBytes = 10 * 1024 * 1024

// defaultDeniedExtensions are rejected for write-like operations.
var defaultDeniedExtensions = map[string]bool{
	".exe": true,
	".dll": true,
	".so":  true,
	".dylib": true,
}

// Validator resolves a user-supplied relative or absolute path against a
// root directory, guaranteeing the result never escapes the root.
type Validator struct {
	root             string
	deniedExtensions map[string]bool
	maxReadBytes     int64
}

// New creates a Validator rooted at root, which must already be an absolute,
// existing directory (the caller, typically config loading, is responsible
// for that precondition).
func New(root string) *Validator {
	return &Validator{
		root:             root,
		deniedExtensions: defaultDeniedExtensions,
		maxReadBytes:     defaultMaxReadBytes,
	}
}

// MaxReadBytes returns the configured size cap for reads.
func (v *Validator) MaxReadBytes() int64 {
	return v.maxReadBytes
}

// SetMaxReadBytes overrides the default read size cap.
func (v *Validator) SetMaxReadBytes(n int64) {
	v.maxReadBytes = n
}

// Resolve validates a user-supplied relative path and returns its canonical
// absolute form, guaranteed to lie within the configured root.
//
// Rejects literal ".." segments and absolute paths before touching the
// filesystem, then canonicalizes (resolving symlinks) both root and
// candidate and requires the candidate to be a descendant of the root.
func (v *Validator) Resolve(rel string) (string, error) {
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if seg == ".." {
			return "", mcperr.New(mcperr.Filesystem, "path contains '..': "+rel)
		}
	}
	if filepath.IsAbs(rel) {
		return "", mcperr.New(mcperr.Filesystem, "path must be relative to the project root: "+rel)
	}

	candidate := filepath.Join(v.root, rel)

	canonicalRoot, err := filepath.EvalSymlinks(v.root)
	if err != nil {
		return "", mcperr.Wrap(mcperr.Filesystem, "cannot canonicalize root directory", err)
	}

	// The candidate may not exist yet (e.g. a write target); canonicalize
	// what does exist and rejoin the remainder.
	canonicalCandidate, err := resolveExistingPrefix(candidate)
	if err != nil {
		return "", mcperr.Wrap(mcperr.Filesystem, "cannot resolve path: "+rel, err)
	}

	if !isWithin(canonicalCandidate, canonicalRoot) {
		return "", mcperr.New(mcperr.Filesystem, "path escapes project root: "+rel)
	}

	return canonicalCandidate, nil
}

// ResolveForWrite is Resolve plus the extension deny-list check for
// write-like operations (write_file, mkdir of a file path, etc.).
func (v *Validator) ResolveForWrite(rel string) (string, error) {
	resolved, err := v.Resolve(rel)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(resolved))
	if v.deniedExtensions[ext] {
		return "", mcperr.New(mcperr.Filesystem, "extension not permitted for write: "+ext)
	}
	return resolved, nil
}

// isWithin reports whether candidate is root or a descendant of root.
func isWithin(candidate, root string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// resolveExistingPrefix canonicalizes the longest existing prefix of path
// and rejoins the remaining (possibly nonexistent) suffix, so a write
// target that doesn't exist yet can still be validated against the root.
func resolveExistingPrefix(path string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == path {
		return path, nil // reached filesystem root without resolving anything
	}

	resolvedDir, err := resolveExistingPrefix(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, base), nil
}

// Exists reports whether the resolved path refers to an existing file or
// directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
