// Package config holds the isolate host's runtime configuration and an
// optional YAML file layer for it.
//
// Grounded on the agent-sandbox repo's internal/config package: a
// DefaultFile/Load/Validate triad backed by gopkg.in/yaml.v3, with
// zerolog used for non-fatal warnings during validation. The
// ssrsandbox command builds its Config from CLI flags only (see
// buildConfig in cmd/ssrsandbox/run.go); it has no flag that reads a
// File.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config is the immutable configuration a host.Host is constructed with.
type Config struct {
	RootDir        string
	MaxHeapBytes   uint64
	MaxRenderTime  time.Duration
	AllowedOrigins []string
}

// Validate reports whether c is usable to construct a host.Host.
func (c Config) Validate() error {
	if c.RootDir == "" {
		return fmt.Errorf("root dir must be set")
	}
	if !filepath.IsAbs(c.RootDir) {
		return fmt.Errorf("root dir %q must be an absolute path", c.RootDir)
	}
	if c.MaxRenderTime < 0 {
		return fmt.Errorf("max render time must be >= 0, got %s", c.MaxRenderTime)
	}
	return nil
}

// File is the optional on-disk configuration layer, read by Load. No
// code merges File values with CLI flags. Fields use MB/ms units to
// match the CLI flags they mirror; ToConfig converts to the host's
// native units.
type File struct {
	RootDir       string   `yaml:"root_dir"`
	MaxHeapSizeMB int      `yaml:"max_heap_size_mb"`
	TimeoutMS     int      `yaml:"timeout_ms"`
	AllowOrigin   []string `yaml:"allow_origin"`
	MetricsAddr   string   `yaml:"metrics_addr"`
}

// DefaultFile returns the file-layer defaults applied before a config
// file (if any) is unmarshaled over them.
func DefaultFile() *File {
	return &File{
		MaxHeapSizeMB: 64,
		TimeoutMS:     5000,
		MetricsAddr:   ":9090",
	}
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path comes from a CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	f := DefaultFile()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return f, nil
}

// Validate checks the file layer in its own units, before any CLI
// overrides are applied.
func (f *File) Validate() error {
	if f.MaxHeapSizeMB < 0 {
		return fmt.Errorf("max_heap_size_mb must be >= 0, got %d", f.MaxHeapSizeMB)
	}
	if f.TimeoutMS < 0 {
		return fmt.Errorf("timeout_ms must be >= 0, got %d", f.TimeoutMS)
	}
	if f.RootDir != "" && !filepath.IsAbs(f.RootDir) {
		return fmt.Errorf("root_dir %q must be an absolute path", f.RootDir)
	}
	if f.MaxHeapSizeMB > 0 && f.MaxHeapSizeMB < 8 {
		log.Warn().Int("max_heap_size_mb", f.MaxHeapSizeMB).Msg("heap limit below 8MB may fail bootstrap before any render runs")
	}
	return nil
}

// ToConfig converts the file layer into a host.Config, in native units.
func (f *File) ToConfig() Config {
	return Config{
		RootDir:        f.RootDir,
		MaxHeapBytes:   uint64(f.MaxHeapSizeMB) << 20,
		MaxRenderTime:  time.Duration(f.TimeoutMS) * time.Millisecond,
		AllowedOrigins: f.AllowOrigin,
	}
}
