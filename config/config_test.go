package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultFile(t *testing.T) {
	f := DefaultFile()

	if f.MaxHeapSizeMB != 64 {
		t.Errorf("MaxHeapSizeMB = %d, want 64", f.MaxHeapSizeMB)
	}
	if f.TimeoutMS != 5000 {
		t.Errorf("TimeoutMS = %d, want 5000", f.TimeoutMS)
	}
}

func TestFileValidate(t *testing.T) {
	valid := func() *File { return DefaultFile() }

	tests := []struct {
		name    string
		modify  func(*File)
		wantErr bool
	}{
		{"valid defaults", func(f *File) {}, false},
		{"negative heap size", func(f *File) { f.MaxHeapSizeMB = -1 }, true},
		{"negative timeout", func(f *File) { f.TimeoutMS = -1 }, true},
		{"relative root dir", func(f *File) { f.RootDir = "relative/path" }, true},
		{"absolute root dir", func(f *File) { f.RootDir = "/var/chunks" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.modify(f)
			err := f.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	yamlContent := `
root_dir: /srv/chunks
max_heap_size_mb: 128
timeout_ms: 2000
allow_origin:
  - https://api.example.com
metrics_addr: ":9100"
`
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(yamlContent); err != nil {
		t.Fatal(err)
	}
	tmpFile.Close()

	f, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if f.RootDir != "/srv/chunks" {
		t.Errorf("RootDir = %q, want /srv/chunks", f.RootDir)
	}
	if f.MaxHeapSizeMB != 128 {
		t.Errorf("MaxHeapSizeMB = %d, want 128", f.MaxHeapSizeMB)
	}
	if len(f.AllowOrigin) != 1 || f.AllowOrigin[0] != "https://api.example.com" {
		t.Errorf("AllowOrigin = %v, want [https://api.example.com]", f.AllowOrigin)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestToConfig(t *testing.T) {
	f := &File{
		RootDir:       "/srv/chunks",
		MaxHeapSizeMB: 64,
		TimeoutMS:     1500,
		AllowOrigin:   []string{"https://example.com"},
	}
	cfg := f.ToConfig()

	if cfg.RootDir != "/srv/chunks" {
		t.Errorf("RootDir = %q, want /srv/chunks", cfg.RootDir)
	}
	if cfg.MaxHeapBytes != 64<<20 {
		t.Errorf("MaxHeapBytes = %d, want %d", cfg.MaxHeapBytes, uint64(64<<20))
	}
	if cfg.MaxRenderTime != 1500*time.Millisecond {
		t.Errorf("MaxRenderTime = %s, want 1500ms", cfg.MaxRenderTime)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{RootDir: "/srv/chunks", MaxRenderTime: time.Second}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty root dir", func(c *Config) { c.RootDir = "" }, true},
		{"relative root dir", func(c *Config) { c.RootDir = "chunks" }, true},
		{"negative render time", func(c *Config) { c.MaxRenderTime = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
