// Package sandboxerr defines the sentinel error values that cross the
// boundary between the isolate host, the module loader, and the driver.
//
// Mirrors the sentinel style of executor.ErrSessionClosed /
// executor.ErrSessionBusy in the teacher repo: plain errors.New values
// checked with errors.Is, rather than a hierarchy of typed errors.
package sandboxerr

import "errors"

var (
	// ErrRemoteImport is returned when a specifier names a non-file scheme.
	ErrRemoteImport = errors.New("remote import rejected")
	// ErrPathTraversal is returned when a resolved path escapes the sandbox root.
	ErrPathTraversal = errors.New("path escapes sandbox root")
	// ErrNotFound is returned when a resolved path does not name a regular file.
	ErrNotFound = errors.New("module not found")
	// ErrLoadIO is returned when a resolved file cannot be read.
	ErrLoadIO = errors.New("module read failed")
	// ErrNoRenderExport names the case of a loaded module with no callable
	// default or render export. Host.Render does not return this value:
	// the bootstrap dispatcher reports the case as a *RenderError whose
	// message contains "NoRenderExport:".
	ErrNoRenderExport = errors.New("entry has no callable render export")
	// ErrModulePreviouslyFailed names the short-circuit of repeated renders
	// of an entry that failed to load earlier in the runtime's lifetime.
	// Host.Render does not return this value: the bootstrap dispatcher
	// reports the case as a *RenderError whose message contains
	// "ModulePreviouslyFailed:".
	ErrModulePreviouslyFailed = errors.New("module previously failed to load")
	// ErrOriginNotAllowed is returned by the fetch op when the request's
	// origin is not in the configured allowlist.
	ErrOriginNotAllowed = errors.New("fetch origin not allowed")
	// ErrTimeout is returned when a render is terminated by the deadline watchdog.
	ErrTimeout = errors.New("render exceeded deadline")
	// ErrHeapExhausted is returned when a render is terminated by the heap watchdog.
	ErrHeapExhausted = errors.New("render exceeded heap limit")
	// ErrBootstrapFailed is returned when isolate construction or the
	// bootstrap script fails to run.
	ErrBootstrapFailed = errors.New("isolate bootstrap failed")
)

// RenderError wraps a user code throw verbatim. Unlike the sentinels
// above it is not comparable with errors.Is; the runtime that produced
// it is kept, not torn down, since this is a user error rather than a
// capability or resource violation.
type RenderError struct {
	Message string
}

func (e *RenderError) Error() string {
	return e.Message
}

