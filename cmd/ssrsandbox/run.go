package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caffeineduck/ssrsandbox/config"
	"github.com/caffeineduck/ssrsandbox/host"
	"github.com/spf13/cobra"
)

func buildConfig(cmd *cobra.Command, rootDir string) (config.Config, error) {
	absRootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return config.Config{}, fmt.Errorf("resolving chunks dir: %w", err)
	}

	maxHeapMB, _ := cmd.Flags().GetInt("max-heap-size")
	timeoutMS, _ := cmd.Flags().GetInt("timeout")
	origins, _ := cmd.Flags().GetStringSlice("allow-origin")

	cfg := config.Config{
		RootDir:        absRootDir,
		MaxHeapBytes:   uint64(maxHeapMB) * 1024 * 1024,
		MaxRenderTime:  time.Duration(timeoutMS) * time.Millisecond,
		AllowedOrigins: origins,
	}
	if maxHeapMB == 0 {
		cfg.MaxHeapBytes = 0
	}
	if timeoutMS == 0 {
		cfg.MaxRenderTime = 0
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// runRender implements single-shot mode: construct a Host, render one
// entry, write its body to stdout and captured console lines to
// stderr, per spec.md §4.G.
func runRender(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("single-shot mode requires <chunks-dir> <entry> [props-json]")
	}
	chunksDir, entry := args[0], args[1]
	props := "{}"
	if len(args) == 3 {
		props = args[2]
	}
	if props != "" {
		var v any
		if err := json.Unmarshal([]byte(props), &v); err != nil {
			return fmt.Errorf("invalid props JSON: %w", err)
		}
	}

	cfg, err := buildConfig(cmd, chunksDir)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	h, err := host.New(cfg, nil)
	if err != nil {
		return fmt.Errorf("constructing host: %w", err)
	}
	defer h.Close()

	result, err := h.Render(context.Background(), entry, props)
	for _, line := range result.Console {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", line.Level, line.Text)
	}
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	fmt.Fprint(os.Stdout, result.Body)
	return nil
}
