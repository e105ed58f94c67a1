// Package resolver implements the confined module specifier resolution
// described by the isolate host's loader: every import, static or
// dynamic, passes through Resolve before a single byte is read.
//
// Grounded on the teacher repo's hostfunc.FS.resolve, which maps a
// virtual path to a host path under a mount table with a containment
// check via filepath.Abs + strings.HasPrefix. Resolve generalizes that
// to a single root directory and adds symlink canonicalization and a
// remote-scheme rejection pass, per spec.md §4.A.
package resolver

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caffeineduck/ssrsandbox/sandboxerr"
)

// Resolver canonicalizes specifiers against a fixed root directory.
// It is stateless; callers may memoize results themselves.
type Resolver struct {
	rootDir string // canonical absolute path
}

// New canonicalizes rootDir (resolving symlinks) and returns a Resolver
// rooted there. rootDir must exist and be a directory.
func New(rootDir string) (*Resolver, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(real)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, sandboxerr.ErrNotFound
	}
	return &Resolver{rootDir: real}, nil
}

// RootDir returns the canonical root this Resolver is bound to.
func (r *Resolver) RootDir() string {
	return r.rootDir
}

// Resolve canonicalizes specifier against referrer (the id of the
// importing module, or "" for the initial top-level specifier, which
// is resolved against the root) and returns a module id: a canonical
// absolute path beneath RootDir that names an existing regular file.
func (r *Resolver) Resolve(specifier, referrer string) (string, error) {
	if hasRemoteScheme(specifier) {
		return "", sandboxerr.ErrRemoteImport
	}

	var base string
	if referrer != "" {
		base = filepath.Dir(referrer)
	} else {
		base = r.rootDir
	}

	var joined string
	if filepath.IsAbs(specifier) {
		joined = filepath.Clean(specifier)
	} else {
		joined = filepath.Clean(filepath.Join(base, specifier))
	}

	real, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if os.IsNotExist(err) {
			return "", sandboxerr.ErrNotFound
		}
		return "", sandboxerr.ErrLoadIO
	}

	if !r.contains(real) {
		return "", sandboxerr.ErrPathTraversal
	}

	info, err := os.Stat(real)
	if err != nil {
		return "", sandboxerr.ErrNotFound
	}
	if !info.Mode().IsRegular() {
		return "", sandboxerr.ErrNotFound
	}
	if !isExtensionAllowed(real) {
		return "", sandboxerr.ErrNotFound
	}

	return real, nil
}

// contains reports whether path is the root itself or a descendant of it.
func (r *Resolver) contains(path string) bool {
	if path == r.rootDir {
		return true
	}
	return strings.HasPrefix(path, r.rootDir+string(filepath.Separator))
}

// isExtensionAllowed reports whether path names an ES-module-compatible
// source file, per spec.md §3's module identifier invariant. loader.Load
// checks this again independently as defense in depth against an
// explicitly named non-JS file (a .json config, a .env) sitting under
// root_dir.
func isExtensionAllowed(path string) bool {
	switch filepath.Ext(path) {
	case ".js", ".mjs":
		return true
	default:
		return false
	}
}

// hasRemoteScheme reports whether specifier names a URL with a scheme
// other than a bare filesystem path. A bare "file:" with no host is
// treated as local; anything else with a recognizable scheme --
// http(s), data, a host-qualified file URL, or any other bare
// "word:" prefix -- is remote.
func hasRemoteScheme(specifier string) bool {
	u, err := url.Parse(specifier)
	if err != nil || u.Scheme == "" {
		return false
	}
	if u.Scheme == "file" && u.Host == "" {
		return false
	}
	return true
}
