// Package loader reads module source bytes for ids produced by
// resolver.Resolve. Grounded on the teacher repo's hostfunc.FS.Read,
// simplified to a single read-only concern since modules are never
// written back.
package loader

import (
	"os"
	"path/filepath"

	"github.com/caffeineduck/ssrsandbox/sandboxerr"
)

// Loader hands resolved module ids to the engine as source bytes.
type Loader struct{}

// New returns a Loader. It holds no state; every module graph shares
// one instance for the life of a runtime.
func New() *Loader {
	return &Loader{}
}

// Load reads the file named by id, which must be a value previously
// produced by resolver.Resolve. The extension check is repeated here,
// independently of resolver.Resolve's own check, as defense in depth:
// a second guard against ever handing a non-JS file's bytes to the
// engine, even if a future caller invokes Load with an id that skipped
// resolution.
func (l *Loader) Load(id string) ([]byte, error) {
	switch filepath.Ext(id) {
	case ".js", ".mjs":
	default:
		return nil, sandboxerr.ErrNotFound
	}

	data, err := os.ReadFile(id)
	if err != nil {
		return nil, sandboxerr.ErrLoadIO
	}
	return data, nil
}
