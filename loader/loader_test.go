package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/caffeineduck/ssrsandbox/sandboxerr"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entry.js")
	want := "export default () => 1;"
	if err := os.WriteFile(path, []byte(want), 0o644); err != nil {
		t.Fatal(err)
	}

	l := New()
	got, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != want {
		t.Errorf("Load() = %q, want %q", got, want)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	l := New()
	_, err := l.Load(filepath.Join(t.TempDir(), "missing.js"))
	if !errors.Is(err, sandboxerr.ErrLoadIO) {
		t.Errorf("err = %v, want ErrLoadIO", err)
	}
}
