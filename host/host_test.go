package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caffeineduck/ssrsandbox/config"
	"github.com/caffeineduck/ssrsandbox/sandboxerr"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestHost(t *testing.T, dir string, cfg config.Config) *Host {
	t.Helper()
	cfg.RootDir = dir
	h, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(h.Close)
	return h
}

func TestRender_DefaultExport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "entry.js", `export default (p) => "hello " + p.name;`)

	h := newTestHost(t, dir, config.Config{})
	result, err := h.Render(context.Background(), "entry.js", `{"name":"Ada"}`)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if result.Body != "hello Ada" {
		t.Errorf("Body = %q, want %q", result.Body, "hello Ada")
	}
}

func TestRender_PathTraversal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "entry.js", `export default async (p) => { await __dynImport_never_used; return "x"; };`)
	writeFile(t, dir, "pages/evil.js", `export default () => "evil";`)

	h := newTestHost(t, dir, config.Config{})
	_, err := h.Render(context.Background(), "../../../etc/passwd", `{}`)
	if err == nil {
		t.Fatal("expected an error for an out-of-root entry")
	}
}

func TestRender_NegativeCacheShortCircuits(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "entry.js", "__missingGlobal.boom();\nexport default () => \"unreachable\";")

	h := newTestHost(t, dir, config.Config{})
	_, err1 := h.Render(context.Background(), "entry.js", `{}`)
	if err1 == nil {
		t.Fatal("expected first render to fail")
	}
	_, err2 := h.Render(context.Background(), "entry.js", `{}`)
	if err2 == nil {
		t.Fatal("expected second render to fail via negative cache")
	}
	if !strings.Contains(err2.Error(), "ModulePreviouslyFailed") {
		t.Errorf("err2 = %v, want a ModulePreviouslyFailed short-circuit", err2)
	}
}

func TestRender_Timeout(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "entry.js", `export default () => { while (true) {} };`)

	h := newTestHost(t, dir, config.Config{MaxRenderTime: 50 * time.Millisecond})
	_, err := h.Render(context.Background(), "entry.js", `{}`)
	if !errors.Is(err, sandboxerr.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}

	writeFile(t, dir, "ok.js", `export default () => "recovered";`)
	result, err := h.Render(context.Background(), "ok.js", `{}`)
	if err != nil {
		t.Fatalf("render after timeout: %v", err)
	}
	if result.Body != "recovered" {
		t.Errorf("Body = %q, want %q (cold start should still succeed)", result.Body, "recovered")
	}
}

func TestRender_TamperAttemptFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tamper.js", `export default () => {
		try { globalThis.__ssr_internal_render__ = () => "PWNED"; } catch (e) {}
		return typeof globalThis.__ssr_internal_render__;
	};`)
	writeFile(t, dir, "entry.js", `export default (p) => "hello " + p.name;`)

	h := newTestHost(t, dir, config.Config{})
	result, err := h.Render(context.Background(), "tamper.js", `{}`)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if result.Body != "function" {
		t.Errorf("Body = %q, want %q (assignment must not take effect)", result.Body, "function")
	}

	result, err = h.Render(context.Background(), "entry.js", `{"name":"Ada"}`)
	if err != nil {
		t.Fatalf("Render after tamper attempt: %v", err)
	}
	if result.Body != "hello Ada" {
		t.Errorf("Body = %q, want %q", result.Body, "hello Ada")
	}
}

func TestRender_ConsoleLinesScopedToRender(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "entry.js", `export default (p) => { console.log("from " + p.name); return "ok"; };`)

	h := newTestHost(t, dir, config.Config{})
	result, err := h.Render(context.Background(), "entry.js", `{"name":"one"}`)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(result.Console) != 1 || result.Console[0].Text != "from one" {
		t.Errorf("Console = %v, want exactly one line 'from one'", result.Console)
	}

	result, err = h.Render(context.Background(), "entry.js", `{"name":"two"}`)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(result.Console) != 1 || result.Console[0].Text != "from two" {
		t.Errorf("Console = %v, want exactly one line 'from two'", result.Console)
	}
}
